package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/example/ieltsprep/internal/logger"
	"github.com/example/ieltsprep/pkg/models"
)

const (
	// optionSeparator splits options and alternative answers inside one cell
	optionSeparator = "|"
	// correctMarker prefixes the correct multiple choice option
	correctMarker = "*"
	// DefaultPassScore applies to new tests whose pass score cell is empty
	DefaultPassScore = 5.0
)

// TestStore is what the importer needs from the test repository
type TestStore interface {
	GetByTitle(ctx context.Context, title string) (*models.Test, error)
	Create(ctx context.Context, test *models.Test) error
	SyncTotalQuestions(ctx context.Context, testID string) (int, error)
}

// QuestionStore is what the importer needs from the question repository
type QuestionStore interface {
	Create(ctx context.Context, q *models.Question) error
	NextPosition(ctx context.Context, testID string) (int, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath            string // Path to the Excel or CSV file
	TitleColumn         string // Test title, rows with the same title belong to one test
	TestTypeColumn      string // listening, reading, writing, speaking or full_test
	PassScoreColumn     string // Band needed to pass, only read when the test is new
	QuestionTypeColumn  string
	PromptColumn        string
	OptionsColumn       string // "A|*B|C", the starred option is correct
	CorrectAnswerColumn string // "paris|Paris", alternatives or matching pairs in order
	PointsColumn        string
	SheetName           string
	StartRow            int // 1-based, rows before it are headers
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TitleColumn:         "A",
		TestTypeColumn:      "B",
		PassScoreColumn:     "C",
		QuestionTypeColumn:  "D",
		PromptColumn:        "E",
		OptionsColumn:       "F",
		CorrectAnswerColumn: "G",
		PointsColumn:        "H",
		SheetName:           "Sheet1",
		StartRow:            2,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed   int
	TestsCreated     int
	QuestionsCreated int
	Skipped          int
	Errors           []string
}

// Importer loads a question bank into the database
type Importer struct {
	tests     TestStore
	questions QuestionStore
	log       *logger.Logger
}

func NewImporter(tests TestStore, questions QuestionStore, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.Nop()
	}
	return &Importer{
		tests:     tests,
		questions: questions,
		log:       log.With("component", "Importer"),
	}
}

// Import reads config.FilePath, .csv files as CSV and anything else as xlsx.
// Row level problems are collected in ImportResult.Errors and do not stop the import.
func (im *Importer) Import(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	run := &importRun{
		Importer: im,
		config:   config,
		result:   &ImportResult{Errors: make([]string, 0)},
		byTitle:  make(map[string]*models.Test),
	}

	for i, row := range rows {
		if i < config.StartRow-1 || blankRow(row) {
			continue
		}
		run.result.TotalProcessed++

		if err := run.processRow(ctx, row); err != nil {
			run.result.Skipped++
			run.result.Errors = append(run.result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	for _, test := range run.touched {
		total, err := im.tests.SyncTotalQuestions(ctx, test.ID)
		if err != nil {
			return run.result, err
		}
		im.log.Debug("Test synced", "test_id", test.ID, "title", test.Title, "total_questions", total)
	}

	im.log.Info("Import finished",
		"file", config.FilePath,
		"processed", run.result.TotalProcessed,
		"tests_created", run.result.TestsCreated,
		"questions_created", run.result.QuestionsCreated,
		"skipped", run.result.Skipped,
	)
	return run.result, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Trailing empty cells may be dropped
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type importRun struct {
	*Importer
	config  ImportConfig
	result  *ImportResult
	byTitle map[string]*models.Test
	touched []*models.Test
}

func (run *importRun) processRow(ctx context.Context, row []string) error {
	cfg := run.config
	title := cell(row, cfg.TitleColumn)
	if title == "" {
		return fmt.Errorf("test title cannot be empty")
	}

	question, err := parseQuestion(row, cfg)
	if err != nil {
		return err
	}

	test, err := run.testFor(ctx, title, cell(row, cfg.TestTypeColumn), cell(row, cfg.PassScoreColumn))
	if err != nil {
		return err
	}

	position, err := run.questions.NextPosition(ctx, test.ID)
	if err != nil {
		return err
	}
	question.ID = uuid.NewString()
	question.TestID = test.ID
	question.Position = position

	if err := run.questions.Create(ctx, question); err != nil {
		return err
	}
	run.result.QuestionsCreated++
	return nil
}

// testFor returns the test called title, creating it on first sight
func (run *importRun) testFor(ctx context.Context, title, skill, passScore string) (*models.Test, error) {
	key := strings.ToLower(title)
	if test, ok := run.byTitle[key]; ok {
		return test, nil
	}

	test, err := run.tests.GetByTitle(ctx, title)
	if err != nil {
		return nil, err
	}

	if test == nil {
		skillType := models.SkillType(strings.ToLower(skill))
		if !skillType.Valid() {
			return nil, fmt.Errorf("invalid test type %q", skill)
		}
		pass := DefaultPassScore
		if passScore != "" {
			if pass, err = strconv.ParseFloat(passScore, 64); err != nil || pass < 0 || pass > 9 {
				return nil, fmt.Errorf("invalid pass score %q", passScore)
			}
		}

		test = &models.Test{
			ID:        uuid.NewString(),
			Title:     title,
			Type:      skillType,
			PassScore: pass,
		}
		if err := run.tests.Create(ctx, test); err != nil {
			return nil, err
		}
		run.result.TestsCreated++
	}

	run.byTitle[key] = test
	run.touched = append(run.touched, test)
	return test, nil
}

func parseQuestion(row []string, cfg ImportConfig) (*models.Question, error) {
	qType := models.QuestionType(strings.ToLower(cell(row, cfg.QuestionTypeColumn)))
	if !qType.Valid() {
		return nil, fmt.Errorf("invalid question type %q", cell(row, cfg.QuestionTypeColumn))
	}

	prompt := cell(row, cfg.PromptColumn)
	if prompt == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}

	q := &models.Question{Type: qType, Prompt: prompt}

	if raw := cell(row, cfg.PointsColumn); raw != "" {
		points, err := strconv.ParseFloat(raw, 64)
		if err != nil || points <= 0 {
			return nil, fmt.Errorf("invalid points %q", raw)
		}
		q.Points = points
	}

	switch {
	case qType == models.QuestionMultipleChoice:
		options, err := parseOptions(cell(row, cfg.OptionsColumn))
		if err != nil {
			return nil, err
		}
		q.Options = options

	case qType.Subjective():
		// Graded by a teacher, no key

	default:
		answers := splitCell(cell(row, cfg.CorrectAnswerColumn))
		switch len(answers) {
		case 0:
			return nil, fmt.Errorf("correct answer cannot be empty for %s", qType)
		case 1:
			q.CorrectAnswer = models.SingleAnswer(answers[0])
		default:
			q.CorrectAnswer = models.MultiAnswer(answers...)
		}
	}

	return q, nil
}

// parseOptions reads "A|*B|C" into an option list with exactly one correct entry
func parseOptions(raw string) (models.OptionList, error) {
	parts := splitCell(raw)
	if len(parts) < 2 {
		return nil, fmt.Errorf("multiple choice needs at least two options")
	}

	options := make(models.OptionList, 0, len(parts))
	correct := 0
	for _, p := range parts {
		opt := models.Option{Text: p}
		if strings.HasPrefix(p, correctMarker) {
			opt.Text = strings.TrimSpace(strings.TrimPrefix(p, correctMarker))
			opt.IsCorrect = true
			correct++
		}
		options = append(options, opt)
	}
	if correct != 1 {
		return nil, fmt.Errorf("multiple choice needs exactly one option marked with %q, got %d", correctMarker, correct)
	}
	return options, nil
}

func splitCell(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, optionSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil || n > len(row) {
		return ""
	}
	return strings.TrimSpace(row[n-1])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
