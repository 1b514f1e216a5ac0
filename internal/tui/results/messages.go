package results

// SetEditorQueryMsg asks the app to place a query in the editor.
type SetEditorQueryMsg struct {
	Query string
}

// StatusNotifyMsg asks the app to show a message in the status bar.
type StatusNotifyMsg struct {
	Message string
}
