package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/teamdir/internal/roster"
	"github.com/roach88/teamdir/internal/urlsync"
)

// Scenario drives one directory session through a sequence of user
// actions and checks where it ends up.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dataset is what the source serves.
	Dataset Dataset `yaml:"dataset"`

	// Address is the initial path and query, e.g. "/team-directory?page=2".
	// Defaults to "/team-directory".
	Address string `yaml:"address,omitempty"`

	// Preferences restored from a previous session. Zero fields keep the
	// defaults.
	Preferences PreferenceSpec `yaml:"preferences,omitempty"`

	// Steps run in order; the session settles after each one.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions are checked against the settled session after the last
	// step.
	Assertions []Assertion `yaml:"assertions"`
}

// Dataset is either Size generated members or an explicit member list.
type Dataset struct {
	Size    int             `yaml:"size,omitempty"`
	Members []roster.Member `yaml:"members,omitempty"`
}

// PreferenceSpec mirrors roster.Preferences in scenario files.
type PreferenceSpec struct {
	ViewMode string `yaml:"view_mode,omitempty"`
	PageSize int    `yaml:"page_size,omitempty"`
}

// Step is one user action.
type Step struct {
	Action    string `yaml:"action"`
	Search    string `yaml:"search,omitempty"`
	Role      string `yaml:"role,omitempty"`
	SortBy    string `yaml:"sort_by,omitempty"`
	SortOrder string `yaml:"sort_order,omitempty"`
	Page      int    `yaml:"page,omitempty"`
	PageSize  int    `yaml:"page_size,omitempty"`
	View      string `yaml:"view,omitempty"`
	Message   string `yaml:"message,omitempty"`
}

// Step actions.
const (
	ActionSetSearch    = "set_search"
	ActionSetRole      = "set_role"
	ActionSetSort      = "set_sort"
	ActionSetPage      = "set_page"
	ActionSetPageSize  = "set_page_size"
	ActionSetView      = "set_view"
	ActionClearFilters = "clear_filters"
	ActionLoad         = "load"
	ActionRetry        = "retry"
	ActionFailNext     = "fail_next"
)

// Assertion checks one property of the settled session.
type Assertion struct {
	Type    string   `yaml:"type"`
	Count   int      `yaml:"count,omitempty"`
	IDs     []string `yaml:"ids,omitempty"`
	Page    int      `yaml:"page,omitempty"`
	Loading bool     `yaml:"loading,omitempty"`
	Error   string   `yaml:"error,omitempty"`
	Address string   `yaml:"address,omitempty"`
	Pages   []int    `yaml:"pages,omitempty"`
}

// Assertion type constants.
const (
	AssertVisibleCount = "visible_count"
	AssertVisibleIDs   = "visible_ids"
	AssertTotalCount   = "total_count"
	AssertPage         = "page"
	AssertLoading      = "loading"
	AssertError        = "error"
	AssertAddress      = "address"
	AssertSourcePages  = "source_pages"
	AssertNoDuplicates = "no_duplicates"
)

// DefaultAddress is the address of a scenario that does not set one.
const DefaultAddress = urlsync.DefaultPath

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Dataset.Size < 0 {
		return fmt.Errorf("dataset.size must be non-negative")
	}
	if s.Dataset.Size > 0 && len(s.Dataset.Members) > 0 {
		return fmt.Errorf("dataset: size and members are mutually exclusive")
	}
	seen := make(map[string]bool, len(s.Dataset.Members))
	for i, m := range s.Dataset.Members {
		if m.ID == "" {
			return fmt.Errorf("dataset.members[%d]: id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("dataset.members[%d]: duplicate id %q", i, m.ID)
		}
		seen[m.ID] = true
		if !m.Role.Valid() {
			return fmt.Errorf("dataset.members[%d]: invalid role %q", i, m.Role)
		}
	}

	if v := s.Preferences.ViewMode; v != "" {
		if _, err := roster.ParseViewMode(v); err != nil {
			return fmt.Errorf("preferences: %w", err)
		}
	}
	if s.Preferences.PageSize < 0 {
		return fmt.Errorf("preferences.page_size must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// validateStep checks the arguments each action needs. Values the session
// itself rejects (an unknown role, page 0) are allowed so scenarios can
// exercise rejection.
func validateStep(index int, step Step) error {
	switch step.Action {
	case "":
		return fmt.Errorf("steps[%d]: action is required", index)
	case ActionSetSearch, ActionSetRole, ActionSetPage, ActionSetPageSize,
		ActionClearFilters, ActionLoad, ActionRetry:
	case ActionSetSort:
		if step.SortOrder == "" {
			return fmt.Errorf("steps[%d]: sort_order is required for set_sort", index)
		}
	case ActionSetView:
		if step.View == "" {
			return fmt.Errorf("steps[%d]: view is required for set_view", index)
		}
	case ActionFailNext:
		if step.Message == "" {
			return fmt.Errorf("steps[%d]: message is required for fail_next", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown action %q", index, step.Action)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertVisibleCount, AssertTotalCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertPage:
		if a.Page < 1 {
			return fmt.Errorf("assertions[%d]: page must be >= 1", index)
		}
	case AssertVisibleIDs, AssertLoading, AssertError, AssertNoDuplicates:
	case AssertAddress:
		if a.Address == "" {
			return fmt.Errorf("assertions[%d]: address is required", index)
		}
	case AssertSourcePages:
		if len(a.Pages) == 0 {
			return fmt.Errorf("assertions[%d]: pages list is required for source_pages", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// members returns the dataset to serve.
func (d Dataset) members() []roster.Member {
	if len(d.Members) > 0 {
		return d.Members
	}
	return roster.Generate(d.Size)
}

// preferences returns the restored preferences, defaults filled in.
func (p PreferenceSpec) preferences() roster.Preferences {
	prefs := roster.DefaultPreferences()
	if p.ViewMode != "" {
		prefs.ViewMode = roster.ViewMode(p.ViewMode)
	}
	if p.PageSize > 0 {
		prefs.PageSize = p.PageSize
	}
	return prefs
}
