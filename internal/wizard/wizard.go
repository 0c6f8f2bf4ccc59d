package wizard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/spboyer/tabcheck/internal/checks"
	"github.com/spboyer/tabcheck/internal/suiteconfig"
)

// Answers holds all fields collected during the interactive wizard.
type Answers struct {
	Name         string
	Kinds        []checks.Kind
	NTopColumns  int
	MaxBiasRatio float64
	MinKurtosis  float64
	Category     checks.ConditionCategory
}

// DefaultAnswers selects every check with default thresholds.
func DefaultAnswers() Answers {
	return Answers{
		Name:         "default",
		Kinds:        checks.Kinds(),
		NTopColumns:  checks.DefaultNTopColumns,
		MaxBiasRatio: checks.DefaultMaxBiasRatio,
		MinKurtosis:  checks.DefaultMinKurtosis,
		Category:     checks.CategoryFail,
	}
}

const suiteHeaderTemplate = `# {{ .Name }} suite generated by tabcheck init.
# Checks: {{ range $i, $k := .Kinds }}{{ if $i }}, {{ end }}{{ $k }}{{ end }}
# Run it with: tabcheck run --suite <this file> --data <csv>
`

// RunSuiteWizard runs an interactive huh form that starts from initial.
func RunSuiteWizard(in io.Reader, out io.Writer, initial Answers) (*Answers, error) {
	var (
		name        = initial.Name
		kinds       = kindStrings(initial.Kinds)
		nTopRaw     = strconv.Itoa(initial.NTopColumns)
		maxRatioRaw = strconv.FormatFloat(initial.MaxBiasRatio, 'f', -1, 64)
		minKurtRaw  = strconv.FormatFloat(initial.MinKurtosis, 'f', -1, 64)
		category    = string(initial.Category)
	)

	kindOptions := make([]huh.Option[string], 0, len(checks.Kinds()))
	for _, k := range checks.Kinds() {
		kindOptions = append(kindOptions, huh.NewOption(fmt.Sprintf("%s: %s", k, checks.Describe(k)), string(k)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Suite name").
				Placeholder("regression").
				Value(&name).
				Validate(validateName),
			huh.NewMultiSelect[string]().
				Title("Checks").
				Description("Checks to run, in suite order").
				Options(kindOptions...).
				Value(&kinds).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return errors.New("select at least one check")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Top columns").
				Description("How many features columns_info shows").
				Value(&nTopRaw).
				Validate(func(s string) error {
					_, err := parseNonNegativeInt(s)
					return err
				}),
			huh.NewInput().
				Title("Maximum bias ratio").
				Description("Largest |mean error| / RMSE that still passes").
				Value(&maxRatioRaw).
				Validate(func(s string) error {
					_, err := parseNonNegativeFloat(s)
					return err
				}),
			huh.NewInput().
				Title("Minimum kurtosis").
				Description("Smallest excess kurtosis of the errors that still passes").
				Value(&minKurtRaw).
				Validate(func(s string) error {
					_, err := parseFloat(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Condition category").
				Options(
					huh.NewOption("FAIL: a failed condition fails the run", string(checks.CategoryFail)),
					huh.NewOption("WARN: a failed condition is only reported", string(checks.CategoryWarn)),
				).
				Value(&category),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	return Collect(name, kinds, nTopRaw, maxRatioRaw, minKurtRaw, category)
}

// Collect validates raw form values and converts them to Answers.
func Collect(name string, kinds []string, nTopRaw, maxRatioRaw, minKurtRaw, category string) (*Answers, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	a := &Answers{Name: name, Category: checks.ConditionCategory(strings.ToUpper(strings.TrimSpace(category)))}
	if a.Category == "" {
		a.Category = checks.CategoryFail
	}
	if a.Category != checks.CategoryFail && a.Category != checks.CategoryWarn {
		return nil, fmt.Errorf("invalid condition category %q", category)
	}

	valid := map[string]bool{}
	for _, k := range checks.Kinds() {
		valid[string(k)] = true
	}
	for _, k := range kinds {
		if !valid[k] {
			return nil, fmt.Errorf("'%s' is not a valid check kind", k)
		}
		a.Kinds = append(a.Kinds, checks.Kind(k))
	}
	if len(a.Kinds) == 0 {
		return nil, errors.New("select at least one check")
	}

	var err error
	if a.NTopColumns, err = parseNonNegativeInt(nTopRaw); err != nil {
		return nil, fmt.Errorf("top columns: %w", err)
	}
	if a.MaxBiasRatio, err = parseNonNegativeFloat(maxRatioRaw); err != nil {
		return nil, fmt.Errorf("maximum bias ratio: %w", err)
	}
	if a.MinKurtosis, err = parseFloat(minKurtRaw); err != nil {
		return nil, fmt.Errorf("minimum kurtosis: %w", err)
	}
	return a, nil
}

// Suite converts the answers to a suite file.
func (a *Answers) Suite() *suiteconfig.SuiteFile {
	sf := &suiteconfig.SuiteFile{Name: a.Name}
	var category checks.ConditionCategory
	if a.Category == checks.CategoryWarn {
		category = checks.CategoryWarn
	}

	for _, k := range a.Kinds {
		spec := suiteconfig.CheckSpec{Kind: k}
		switch k {
		case checks.KindColumnsInfo:
			if a.NTopColumns != checks.DefaultNTopColumns {
				spec.Params = map[string]any{"n_top_columns": a.NTopColumns}
			}
		case checks.KindRegressionSystematicError:
			spec.Conditions = []checks.ConditionSpec{{
				Name:     checks.ConditionBiasRatio,
				Params:   map[string]any{"max_ratio": a.MaxBiasRatio},
				Category: category,
			}}
		case checks.KindRegressionErrorDistribution:
			spec.Conditions = []checks.ConditionSpec{{
				Name:     checks.ConditionMinKurtosis,
				Params:   map[string]any{"min_kurtosis": a.MinKurtosis},
				Category: category,
			}}
		}
		sf.Checks = append(sf.Checks, spec)
	}
	return sf
}

// GenerateSuiteYAML renders the suite file for a, with a comment header.
func GenerateSuiteYAML(a *Answers) (string, error) {
	tmpl, err := template.New("suite").Parse(suiteHeaderTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, a); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}

	body, err := suiteconfig.Marshal(a.Suite())
	if err != nil {
		return "", fmt.Errorf("failed to encode suite: %w", err)
	}
	buf.Write(body)
	return buf.String(), nil
}

func validateName(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("suite name is required")
	}
	if strings.ContainsAny(s, "\n\t") {
		return errors.New("suite name must be a single line")
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func parseNonNegativeFloat(s string) (float64, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative", strings.TrimSpace(s))
	}
	return v, nil
}

func parseNonNegativeInt(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%d must not be negative", v)
	}
	return v, nil
}

func kindStrings(kinds []checks.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
