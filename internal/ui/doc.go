// Package ui implements the interactive terminal prompts.
//
// [Terminal] is the production [Prompter]: selections are rendered with a bubbletea list model
// (charmbracelet/bubbles/list) so long option lists can be filtered, while yes/no questions
// and free text use survey prompts.
//
// Keyboard navigation uses vim-style bindings (j/k, enter) with contextual help. Backing out
// with esc yields [ErrCancelled]; ctrl+c yields [ErrInterrupted].
//
// [ProgressLine] and [PrintProgress] style the engine's progress updates for the terminal.
package ui
