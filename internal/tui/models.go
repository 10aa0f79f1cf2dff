package tui

type View int

const (
	ViewPosts View = iota
	ViewReader
	ViewSearch
)

func (v View) String() string {
	switch v {
	case ViewPosts:
		return "posts"
	case ViewReader:
		return "reader"
	case ViewSearch:
		return "search"
	default:
		return "unknown"
	}
}
