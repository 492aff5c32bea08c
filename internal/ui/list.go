package ui

import (
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = optionItem{}

// optionItem wraps one choice of a [Terminal.Select] prompt to implement [list.Item].
type optionItem struct {
	index int
	label string
}

func (i optionItem) FilterValue() string { return i.label }
func (i optionItem) Title() string       { return i.label }
func (i optionItem) Description() string { return "" }

func optionItems(options []string) []list.Item {
	items := make([]list.Item, len(options))
	for i, o := range options {
		items[i] = optionItem{index: i, label: o}
	}
	return items
}
