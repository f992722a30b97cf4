package session

import (
	"slices"
	"testing"

	"github.com/matsen/pdbkg/internal/node"
)

func ref(id string) node.Ref {
	return node.Ref{ID: id, Kind: node.KindProtein}
}

func TestReduce(t *testing.T) {
	start := State{Selection: []node.Ref{ref("A"), ref("B")}, Seq: 3}

	tests := []struct {
		name    string
		event   Event
		wantIDs []string
		wantSeq uint64
	}{
		{"select new", Select(ref("C")), []string{"A", "B", "C"}, 4},
		{"select existing", Select(ref("A")), []string{"A", "B"}, 3},
		{"select empty id", Select(node.Ref{}), []string{"A", "B"}, 3},
		{"deselect", Deselect("A"), []string{"B"}, 4},
		{"deselect missing", Deselect("Z"), []string{"A", "B"}, 3},
		{"replace", Replace([]node.Ref{ref("C"), ref("C"), ref("A")}), []string{"C", "A"}, 4},
		{"replace same", Replace([]node.Ref{ref("A"), ref("B")}), []string{"A", "B"}, 3},
		{"replace reordered", Replace([]node.Ref{ref("B"), ref("A")}), []string{"B", "A"}, 4},
		{"clear", Clear(), []string{}, 4},
		{"unknown", Event{Type: "bogus"}, []string{"A", "B"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(start, tt.event)
			if !slices.Equal(got.IDs(), tt.wantIDs) {
				t.Errorf("IDs() = %v, want %v", got.IDs(), tt.wantIDs)
			}
			if got.Seq != tt.wantSeq {
				t.Errorf("Seq = %d, want %d", got.Seq, tt.wantSeq)
			}
		})
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	sel := make([]node.Ref, 2, 4)
	sel[0], sel[1] = ref("A"), ref("B")
	start := State{Selection: sel}

	Reduce(start, Select(ref("C")))
	Reduce(start, Deselect("A"))

	if !slices.Equal(start.IDs(), []string{"A", "B"}) {
		t.Errorf("input state changed to %v", start.IDs())
	}
	if sel[:3][2].ID != "" {
		t.Error("Reduce wrote into the input slice's spare capacity")
	}
}
