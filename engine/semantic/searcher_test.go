package semantic

import (
	"context"
	"errors"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vec, s.err
}

func TestSearcher_FiltersByScoreAndExclusion(t *testing.T) {
	far := sampleFood()
	far.ExternalID = "rice-9"
	excluded := sampleFood()
	excluded.ExternalID = "rice-2"

	pts := &mockPoints{
		searchResp: &pb.SearchResponse{
			Result: []*pb.ScoredPoint{
				{Score: 0.92, Payload: encodeFood(sampleFood())},
				{Score: 0.90, Payload: encodeFood(excluded)},
				{Score: 0.10, Payload: encodeFood(far)},
			},
		},
	}
	store := NewWithClients(pts, &mockCollections{}, "foods")
	s := NewSearcher(store, &stubEmbedder{vec: []float32{0.1}}, 0, nil)

	foods, err := s.Search(context.Background(), "rice", []string{"rice-2"}, 15)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(foods) != 1 || foods[0].ExternalID != "rice-1" {
		t.Errorf("foods = %+v, want only rice-1", foods)
	}
}

func TestSearcher_EmbedError(t *testing.T) {
	store := NewWithClients(&mockPoints{}, &mockCollections{}, "foods")
	s := NewSearcher(store, &stubEmbedder{err: errors.New("model down")}, 0, nil)

	if _, err := s.Search(context.Background(), "rice", nil, 15); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearcher_LimitApplied(t *testing.T) {
	var result []*pb.ScoredPoint
	for _, id := range []string{"a", "b", "c", "d"} {
		f := sampleFood()
		f.ExternalID = id
		result = append(result, &pb.ScoredPoint{Score: 0.9, Payload: encodeFood(f)})
	}
	store := NewWithClients(&mockPoints{searchResp: &pb.SearchResponse{Result: result}}, &mockCollections{}, "foods")
	s := NewSearcher(store, &stubEmbedder{vec: []float32{0.1}}, 0, nil)

	foods, err := s.Search(context.Background(), "rice", nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(foods) != 2 {
		t.Errorf("got %d foods, want 2", len(foods))
	}
}
