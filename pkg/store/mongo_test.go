package store

import (
	"context"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
)

func indexed() []nestedset.Node {
	return []nestedset.Node{
		{ID: "root", Label: "Root", PositionID: 1, Left: 1, Right: 6, Count: 2},
		{ID: "a", Label: "A", Parent: "root", PositionID: 2, ParentPositionID: 1, Left: 2, Right: 3},
		{ID: "a__1", Label: "A", Parent: "root", Origin: "a", Leaf: true, PositionID: 3, ParentPositionID: 1, Left: 4, Right: 5},
	}
}

func TestDocumentsRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	docs := toDocuments("products", "run-1", indexed(), now)
	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}

	decoded := make([]document, len(docs))
	for i, d := range docs {
		raw, err := bson.Marshal(d)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if err := bson.Unmarshal(raw, &decoded[i]); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if decoded[i].Set != "products" || decoded[i].RunID != "run-1" || !decoded[i].SavedAt.Equal(now) {
			t.Errorf("doc %d metadata = %+v", i, decoded[i])
		}
	}

	if got := fromDocuments(decoded); !reflect.DeepEqual(got, indexed()) {
		t.Errorf("fromDocuments() = %+v\nwant %+v", got, indexed())
	}
}

func TestDocumentNulls(t *testing.T) {
	docs := toDocuments("s", "r", indexed()[:1], time.Now())
	raw, err := bson.Marshal(docs[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"classification_origin", "classification_parent", "parent_id"} {
		v, err := bson.Raw(raw).LookupErr(field)
		if err != nil {
			t.Errorf("%s missing: %v", field, err)
			continue
		}
		if v.Type != bson.TypeNull {
			t.Errorf("%s type = %v, want null", field, v.Type)
		}
	}
}

func TestOpenRequiresURI(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Open() error = %v, want INVALID_CONFIG", err)
	}
}

func TestOpenUnreachable(t *testing.T) {
	_, err := Open(context.Background(), Options{
		URI:     "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200",
		Timeout: 500 * time.Millisecond,
	})
	if !errors.Is(err, errors.ErrCodeStorage) {
		t.Errorf("Open() error = %v, want STORAGE_ERROR", err)
	}
}

func TestSetNameValidation(t *testing.T) {
	var s Store
	if _, err := s.Save(context.Background(), "", nil); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save(\"\") error = %v", err)
	}
	if _, err := s.Load(context.Background(), "bad\x00name"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Load() error = %v", err)
	}
	if _, err := s.Delete(context.Background(), ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Delete(\"\") error = %v", err)
	}
}
