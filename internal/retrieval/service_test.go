package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ragserver/internal/retrieval"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockIndex struct{ mock.Mock }

func (m *MockIndex) Query(ctx context.Context, vector []float32, topK int) ([]retrieval.Match, error) {
	args := m.Called(ctx, vector, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Match), args.Error(1)
}

func TestService_Retrieve(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*MockEmbedder, *MockIndex)
		want    string
		wantErr bool
	}{
		{
			name: "Only Matches At Or Above Threshold Survive",
			setup: func(e *MockEmbedder, i *MockIndex) {
				e.On("EmbedQuery", mock.Anything, "q").Return([]float32{0.1}, nil)
				i.On("Query", mock.Anything, []float32{0.1}, 3).Return([]retrieval.Match{
					{Score: 0.9, Text: "relevant passage", Source: "a.txt"},
					{Score: 0.6, Text: "weak passage", Source: "b.txt"},
					{Score: 0.3, Text: "noise", Source: "c.txt"},
				}, nil)
			},
			want: "relevant passage",
		},
		{
			name: "Surviving Matches Join With Newlines In Provider Order",
			setup: func(e *MockEmbedder, i *MockIndex) {
				e.On("EmbedQuery", mock.Anything, "q").Return([]float32{0.1}, nil)
				i.On("Query", mock.Anything, []float32{0.1}, 3).Return([]retrieval.Match{
					{Score: 0.91, Text: "second best"},
					{Score: 0.95, Text: "best"},
					{Score: 0.80, Text: "third"},
				}, nil)
			},
			// Provider order is trusted, never re-sorted locally.
			want: "second best\nbest\nthird",
		},
		{
			name: "Threshold Is Inclusive",
			setup: func(e *MockEmbedder, i *MockIndex) {
				e.On("EmbedQuery", mock.Anything, "q").Return([]float32{0.1}, nil)
				i.On("Query", mock.Anything, []float32{0.1}, 3).Return([]retrieval.Match{
					{Score: 0.75, Text: "boundary"},
				}, nil)
			},
			want: "boundary",
		},
		{
			name: "All Matches Below Threshold Yield Empty Context",
			setup: func(e *MockEmbedder, i *MockIndex) {
				e.On("EmbedQuery", mock.Anything, "q").Return([]float32{0.1}, nil)
				i.On("Query", mock.Anything, []float32{0.1}, 3).Return([]retrieval.Match{
					{Score: 0.74, Text: "almost"},
					{Score: 0.10, Text: "far"},
				}, nil)
			},
			want: "",
		},
		{
			name: "Matches Without Text Are Skipped",
			setup: func(e *MockEmbedder, i *MockIndex) {
				e.On("EmbedQuery", mock.Anything, "q").Return([]float32{0.1}, nil)
				i.On("Query", mock.Anything, []float32{0.1}, 3).Return([]retrieval.Match{
					{Score: 0.9, Text: ""},
					{Score: 0.8, Text: "kept"},
				}, nil)
			},
			want: "kept",
		},
		{
			name: "No Matches At All",
			setup: func(e *MockEmbedder, i *MockIndex) {
				e.On("EmbedQuery", mock.Anything, "q").Return([]float32{0.1}, nil)
				i.On("Query", mock.Anything, []float32{0.1}, 3).Return([]retrieval.Match{}, nil)
			},
			want: "",
		},
		{
			name: "Embedder Error Propagates",
			setup: func(e *MockEmbedder, i *MockIndex) {
				e.On("EmbedQuery", mock.Anything, "q").Return(nil, errors.New("embed down"))
			},
			wantErr: true,
		},
		{
			name: "Index Error Propagates",
			setup: func(e *MockEmbedder, i *MockIndex) {
				e.On("EmbedQuery", mock.Anything, "q").Return([]float32{0.1}, nil)
				i.On("Query", mock.Anything, []float32{0.1}, 3).Return(nil, errors.New("index down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := new(MockEmbedder)
			i := new(MockIndex)
			tt.setup(e, i)

			svc := retrieval.NewService(e, i, nil)
			got, err := svc.Retrieve(context.Background(), "q", 3)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			e.AssertExpectations(t)
			i.AssertExpectations(t)
		})
	}
}
