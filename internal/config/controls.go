package config

import (
	"fmt"
	"sort"
)

// Controls maps each interactive action to the key that triggers it.
type Controls struct {
	Search         string `yaml:"search"`
	List           string `yaml:"list"`
	Sort           string `yaml:"sort"`
	Delete         string `yaml:"delete"`
	Cite           string `yaml:"cite"`
	Tag            string `yaml:"tag"`
	HistoryBack    string `yaml:"history_back"`
	HistoryForward string `yaml:"history_forward"`
	HistoryJump    string `yaml:"history_jump"`
	HistoryReset   string `yaml:"history_reset"`
	HistoryShow    string `yaml:"history_show"`
	HistoryLog     string `yaml:"history_log"`
	Save           string `yaml:"save"`
	Quit           string `yaml:"quit"`
	PDFFile        string `yaml:"pdf_file"`
	PDFOpen        string `yaml:"pdf_open"`
	Unselect       string `yaml:"unselect"`
	Show           string `yaml:"show"`
	Truncate       string `yaml:"truncate"`
	Check          string `yaml:"check"`
	Merge          string `yaml:"merge"`
	Repeat         string `yaml:"repeat"`
	Clear          string `yaml:"clear"`
}

// DefaultControls returns the stock key bindings.
func DefaultControls() Controls {
	return Controls{
		Search:         "/",
		List:           "l",
		Sort:           "so",
		Delete:         "del",
		Cite:           "c",
		Tag:            "ta",
		HistoryBack:    "hb",
		HistoryForward: "hf",
		HistoryJump:    "hj",
		HistoryReset:   "hr",
		HistoryShow:    "hs",
		HistoryLog:     "hl",
		Save:           "sa",
		Quit:           "q",
		PDFFile:        "fp",
		PDFOpen:        "o",
		Unselect:       "us",
		Show:           "sh",
		Truncate:       "tr",
		Check:          "ch",
		Merge:          "m",
		Repeat:         "r",
		Clear:          "",
	}
}

// Binding is one action and its key.
type Binding struct {
	Action string
	Key    string
}

// Bindings returns all bindings sorted by action name.
func (c Controls) Bindings() []Binding {
	b := []Binding{
		{"search", c.Search},
		{"list", c.List},
		{"sort", c.Sort},
		{"delete", c.Delete},
		{"cite", c.Cite},
		{"tag", c.Tag},
		{"history_back", c.HistoryBack},
		{"history_forward", c.HistoryForward},
		{"history_jump", c.HistoryJump},
		{"history_reset", c.HistoryReset},
		{"history_show", c.HistoryShow},
		{"history_log", c.HistoryLog},
		{"save", c.Save},
		{"quit", c.Quit},
		{"pdf_file", c.PDFFile},
		{"pdf_open", c.PDFOpen},
		{"unselect", c.Unselect},
		{"show", c.Show},
		{"truncate", c.Truncate},
		{"check", c.Check},
		{"merge", c.Merge},
		{"repeat", c.Repeat},
		{"clear", c.Clear},
	}
	sort.Slice(b, func(i, j int) bool { return b[i].Action < b[j].Action })
	return b
}

// Validate rejects two actions sharing a non-empty key, and an empty quit key.
func (c Controls) Validate() error {
	if c.Quit == "" {
		return fmt.Errorf("controls: quit key must be set")
	}
	seen := make(map[string]string)
	for _, b := range c.Bindings() {
		if b.Key == "" {
			continue
		}
		if other, ok := seen[b.Key]; ok {
			return fmt.Errorf("controls: key %q bound to both %s and %s", b.Key, other, b.Action)
		}
		seen[b.Key] = b.Action
	}
	return nil
}
