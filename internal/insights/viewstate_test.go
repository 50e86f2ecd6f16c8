package insights

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daviddao/piv/internal/api"
)

func TestClassifyPrimary(t *testing.T) {
	minimal := &api.Page{PageSummary: api.PageSummary{Name: "Acme"}}
	full := &api.Page{PageSummary: api.PageSummary{
		Name: "Acme", Website: "https://acme.test", Industry: "AI", Founded: "1999",
	}}

	for _, p := range []*api.Page{minimal, full} {
		v := Classify(Succeeded(p))
		assert.Equal(t, StatusPopulated, v.Status())
		got, ok := v.Data()
		assert.True(t, ok)
		assert.Same(t, p, got)
	}

	assert.Equal(t, StatusLoading, Classify(Started[*api.Page]()).Status())
}

func TestClassifyItems(t *testing.T) {
	assert.Equal(t, StatusEmpty, ClassifyItems(Succeeded([]api.Post{})).Status())
	assert.Equal(t, StatusEmpty, ClassifyItems(Succeeded[[]api.Post](nil)).Status())
	assert.Equal(t, StatusPopulated, ClassifyItems(Succeeded([]api.Post{{ID: 1}})).Status())
	assert.Equal(t, StatusLoading, ClassifyItems(Started[[]api.Post]()).Status())

	_, ok := ClassifyItems(Succeeded([]api.Post{})).Data()
	assert.False(t, ok, "empty state carries no data")
}

func TestClassifyFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", &api.Error{Kind: api.KindNotFound, Status: http.StatusNotFound}, MsgNotFound},
		{"network", &api.Error{Kind: api.KindNetwork, Err: errors.New("refused")}, MsgRetry},
		{"server", &api.Error{Kind: api.KindServer, Status: http.StatusInternalServerError}, MsgRetry},
		{"foreign", errors.New("boom"), MsgRetry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(Failed[*api.Page](tt.err))
			assert.Equal(t, StatusError, v.Status())
			assert.Equal(t, tt.want, v.Message())
			assert.Equal(t, tt.err, v.Err())

			items := ClassifyItems(Failed[[]api.Post](tt.err))
			assert.Equal(t, StatusError, items.Status())
			assert.Equal(t, tt.want, items.Message())
		})
	}
}

func TestZeroViewStateIsLoading(t *testing.T) {
	var v ViewState[[]api.Post]
	assert.Equal(t, StatusLoading, v.Status())
	assert.Equal(t, "loading", v.Status().String())
}
