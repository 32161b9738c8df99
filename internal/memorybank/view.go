package memorybank

import (
	"time"
)

// Group is one bucket of a grouped view.
type Group struct {
	Key      string    `json:"key"`
	Memories []*Memory `json:"memories"`
}

// View is a grouped presentation of a filtered memory set. Pinned memories
// always lead in their own section, independent of the active grouping.
type View struct {
	Pinned []*Memory `json:"pinned"`
	Groups []Group   `json:"groups"`
}

// GroupBy names the available grouping projections.
type GroupBy string

const (
	GroupByDate  GroupBy = "date"
	GroupByType  GroupBy = "type"
	GroupByStage GroupBy = "stage"
)

// BuildView splits out pinned memories and groups the remainder. The input
// order (newest first) is preserved inside each bucket; buckets appear in
// first-seen order.
func BuildView(memories []*Memory, groupBy GroupBy) View {
	view := View{Pinned: []*Memory{}, Groups: []Group{}}

	var rest []*Memory
	for _, m := range memories {
		if m.IsPinned {
			view.Pinned = append(view.Pinned, m)
		} else {
			rest = append(rest, m)
		}
	}

	index := map[string]int{}
	for _, m := range rest {
		key := groupKey(m, groupBy)
		i, ok := index[key]
		if !ok {
			i = len(view.Groups)
			index[key] = i
			view.Groups = append(view.Groups, Group{Key: key})
		}
		view.Groups[i].Memories = append(view.Groups[i].Memories, m)
	}
	return view
}

func groupKey(m *Memory, groupBy GroupBy) string {
	switch groupBy {
	case GroupByType:
		return string(m.Type)
	case GroupByStage:
		return m.Stage
	default:
		return time.UnixMilli(m.CreatedAt).UTC().Format("2006-01-02")
	}
}
