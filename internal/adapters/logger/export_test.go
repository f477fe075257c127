package logger

// SplitChain exposes the chain splitter used by pretty error records.
func SplitChain(err error) []ErrorEntry { return collectErrorEntries(err) }

// RenderChain exposes the pretty chain layout.
func RenderChain(entries []ErrorEntry) string { return formatErrorEntries(entries) }
