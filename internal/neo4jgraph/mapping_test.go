package neo4jgraph

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/matsen/pdbkg/internal/node"
)

func TestNodeFromRecord(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		props  map[string]any
		want   node.Node
	}{
		{
			name:   "protein",
			labels: []string{"PROTEIN"},
			props: map[string]any{
				"uuid": "u1", "id": "1", "entry_id": "1ABC",
				"name": "Kinase", "sequence": "MKV",
			},
			want: node.Node{ID: "u1", Kind: node.KindProtein, ExternalID: "1", EntryID: "1ABC", Name: "Kinase", Sequence: "MKV"},
		},
		{
			name:   "entry",
			labels: []string{"ENTRY"},
			props:  map[string]any{"uuid": "u2", "entry_id": "1ABC"},
			want:   node.Node{ID: "u2", Kind: node.KindEntry, ExternalID: "1ABC"},
		},
		{
			name:   "drug",
			labels: []string{"DRUG"},
			props: map[string]any{
				"uuid": "u3", "drugbank_id": "DB00619", "drugbank_name": "Imatinib",
				"synonyms": []any{"STI571", "Gleevec"},
			},
			want: node.Node{ID: "u3", Kind: node.KindDrug, ExternalID: "DB00619", Name: "Imatinib", Synonyms: []string{"Gleevec", "STI571"}},
		},
		{
			name:   "organism",
			labels: []string{"SOURCE_ORGANISM"},
			props: map[string]any{
				"uuid": "u4", "taxonomy_id": int64(9606), "scientific_name": "Homo sapiens",
				"common_names": []any{"human"}, "source_type": "natural",
			},
			want: node.Node{
				ID: "u4", Kind: node.KindSourceOrganism, ExternalID: "9606", Name: "Homo sapiens",
				Synonyms: []string{"human"}, Extra: map[string]any{"source_type": "natural"},
			},
		},
		{
			name:   "unlabelled",
			labels: []string{"Thing"},
			props:  map[string]any{"uuid": "u5"},
			want:   node.Node{ID: "u5", Kind: node.KindNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nodeFromRecord(tt.labels, tt.props)
			if err != nil {
				t.Fatalf("nodeFromRecord() error = %v", err)
			}
			if got.ID != tt.want.ID || got.Kind != tt.want.Kind || got.ExternalID != tt.want.ExternalID ||
				got.EntryID != tt.want.EntryID || got.Name != tt.want.Name || got.Sequence != tt.want.Sequence {
				t.Errorf("nodeFromRecord() = %+v, want %+v", got, tt.want)
			}
			if !slices.Equal(got.Synonyms, tt.want.Synonyms) {
				t.Errorf("Synonyms = %v, want %v", got.Synonyms, tt.want.Synonyms)
			}
			if len(got.Extra) != len(tt.want.Extra) {
				t.Errorf("Extra = %v, want %v", got.Extra, tt.want.Extra)
			}
			for k, v := range tt.want.Extra {
				if got.Extra[k] != v {
					t.Errorf("Extra[%s] = %v, want %v", k, got.Extra[k], v)
				}
			}
		})
	}
}

func TestNodeFromRecord_MissingUUID(t *testing.T) {
	_, err := nodeFromRecord([]string{"PROTEIN"}, map[string]any{"id": "1"})
	if !errors.Is(err, node.ErrEmptyID) {
		t.Errorf("error = %v, want ErrEmptyID", err)
	}
}

func TestLabelClause(t *testing.T) {
	tests := []struct {
		kind node.Kind
		want string
	}{
		{node.KindProtein, ":PROTEIN"},
		{node.KindDrugbankTarget, ":DRUGBANK_TARGET"},
		{node.KindNone, ""},
		{"", ""},
		{"x) DETACH DELETE (y", ""},
	}
	for _, tt := range tests {
		if got := labelClause(tt.kind); got != tt.want {
			t.Errorf("labelClause(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPathQueryBoundsHops(t *testing.T) {
	if q := pathQuery(3); !strings.Contains(q, "[*..3]") {
		t.Errorf("pathQuery(3) = %s", q)
	}
	if q := pathQuery(0); !strings.Contains(q, "[*..6]") {
		t.Errorf("pathQuery(0) should use the default bound: %s", q)
	}
}

func TestNeighborsQueryLabel(t *testing.T) {
	q := neighborsQuery(labelClause(node.KindProtein))
	if !strings.Contains(q, "-[*1]-(c:PROTEIN)") {
		t.Errorf("protein neighbors query = %s", q)
	}
	if q := neighborsQuery(labelClause("")); !strings.Contains(q, "-[*1]-(c)") {
		t.Errorf("unfiltered neighbors query = %s", q)
	}
}
