package node

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"protein", KindProtein, false},
		{"PROTEIN", KindProtein, false},
		{" Host_Organism ", KindHostOrganism, false},
		{"", KindNone, false},
		{"gene", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKind) {
					t.Fatalf("ParseKind(%q) error = %v, want ErrUnknownKind", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKind_Color(t *testing.T) {
	seen := make(map[string]Kind)
	for _, k := range Kinds {
		c := k.Color()
		if c == "" {
			t.Errorf("%s has no color", k)
		}
		if other, dup := seen[c]; dup {
			t.Errorf("%s and %s share color %s", k, other, c)
		}
		seen[c] = k
	}

	if Kind("bogus").Color() != KindNone.Color() {
		t.Error("unknown kind should fall back to the none color")
	}
}

func TestKind_Label(t *testing.T) {
	if got := KindDrugbankTarget.Label(); got != "DRUGBANK_TARGET" {
		t.Errorf("Label() = %q, want DRUGBANK_TARGET", got)
	}
	if got := KindNone.Label(); got != "" {
		t.Errorf("KindNone.Label() = %q, want empty", got)
	}
}

func TestParseRef(t *testing.T) {
	ref, err := ParseRef("protein:abc-123")
	if err != nil {
		t.Fatal(err)
	}
	if ref.ID != "abc-123" || ref.Kind != KindProtein {
		t.Errorf("ParseRef = %+v", ref)
	}
	if ref.String() != "protein:abc-123" {
		t.Errorf("String() = %q", ref.String())
	}

	ref, err = ParseRef("abc-123")
	if err != nil {
		t.Fatal(err)
	}
	if ref.Kind != KindNone {
		t.Errorf("bare ID kind = %q, want none", ref.Kind)
	}

	if _, err := ParseRef("protein:"); !errors.Is(err, ErrEmptyID) {
		t.Errorf("empty id error = %v", err)
	}
	if _, err := ParseRef(""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("empty ref error = %v", err)
	}

	tests := []struct {
		in   string
		want Ref
	}{
		{"GO:0004672", Ref{ID: "GO:0004672", Kind: KindNone}},
		{"annotation:GO:0004672", Ref{ID: "GO:0004672", Kind: KindAnnotation}},
		{"PROTEIN:1ATP_1", Ref{ID: "1ATP_1", Kind: KindProtein}},
		{":x", Ref{ID: ":x", Kind: KindNone}},
	}
	for _, tt := range tests {
		got, err := ParseRef(tt.in)
		if err != nil {
			t.Errorf("ParseRef(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestNode_DisplayLabel(t *testing.T) {
	tests := []struct {
		name string
		n    Node
		want string
	}{
		{
			name: "protein with entry and entity",
			n:    Node{ID: "u1", Kind: KindProtein, EntryID: "4HHB", ExternalID: "1"},
			want: "4HHB/1",
		},
		{
			name: "protein missing entry falls back to external",
			n:    Node{ID: "u1", Kind: KindProtein, ExternalID: "1"},
			want: "1",
		},
		{
			name: "annotation uses external id",
			n:    Node{ID: "u2", Kind: KindAnnotation, ExternalID: "GO:0005344"},
			want: "GO:0005344",
		},
		{
			name: "bare id",
			n:    Node{ID: "u3", Kind: KindDatabase},
			want: "u3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.n.DisplayLabel(); got != tt.want {
				t.Errorf("DisplayLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNode_Validate(t *testing.T) {
	n := Node{ID: "x"}
	if err := n.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if n.Kind != KindNone {
		t.Errorf("empty kind should default to none, got %q", n.Kind)
	}

	empty := Node{Kind: KindDrug}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Validate() = %v, want ErrEmptyID", err)
	}

	bad := Node{ID: "x", Kind: "gene"}
	if err := bad.Validate(); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Validate() = %v, want ErrUnknownKind", err)
	}
}
