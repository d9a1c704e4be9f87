// Package terminal renders UI trees as styled terminal text.
//
// Components map every type of the built-in slide catalog onto lipgloss
// blocks: slides are bordered boxes, columns are joined horizontally,
// charts become bar rows or sparklines. Unknown types render as a red box
// naming the type.
//
// Preview wraps a renderer in a bubbletea program that redraws on every
// tree revision while a generation streams.
//
// Example Usage:
//
//	r := terminal.NewRenderer(terminal.WithWidth(100))
//	res := r.Render(store.Snapshot())
//	fmt.Println(res.Output)
package terminal
