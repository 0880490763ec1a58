package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/appleboy/gofight/v2"
	"github.com/naughtygopher/errors"
	"github.com/stretchr/testify/assert"

	"github.com/prashantkr001/item-service/internal/api"
	"github.com/prashantkr001/item-service/internal/item"
)

type itemSvcMocker struct {
	locker *sync.Mutex
	data   map[string]string
	nextID int
	// failWith is returned by every call when set
	failWith error
}

func newItemSvcMocker() *itemSvcMocker {
	return &itemSvcMocker{locker: &sync.Mutex{}, data: map[string]string{}}
}

func (ism *itemSvcMocker) Create(_ context.Context, name string) (string, error) {
	ism.locker.Lock()
	defer ism.locker.Unlock()
	if ism.failWith != nil {
		return "", ism.failWith
	}
	ism.nextID++
	id := fmt.Sprintf("6523f1c2a1b2c3d4e5f6071%d", ism.nextID)
	ism.data[id] = name
	return id, nil
}

func (ism *itemSvcMocker) Update(_ context.Context, id, name string) error {
	ism.locker.Lock()
	defer ism.locker.Unlock()
	if ism.failWith != nil {
		return ism.failWith
	}
	if _, ok := ism.data[id]; !ok {
		return item.ErrNotFound
	}
	ism.data[id] = name
	return nil
}

func (ism *itemSvcMocker) Get(_ context.Context, id string) (*item.Item, error) {
	ism.locker.Lock()
	defer ism.locker.Unlock()
	if ism.failWith != nil {
		return nil, ism.failWith
	}
	name, ok := ism.data[id]
	if !ok {
		return nil, item.ErrNotFound
	}
	return &item.Item{ID: id, Name: name}, nil
}

func (ism *itemSvcMocker) Delete(_ context.Context, id string) error {
	ism.locker.Lock()
	defer ism.locker.Unlock()
	if ism.failWith != nil {
		return ism.failWith
	}
	if _, ok := ism.data[id]; !ok {
		return item.ErrNotFound
	}
	delete(ism.data, id)
	return nil
}

func setup(svc *itemSvcMocker) (http.Handler, *gofight.RequestConfig) {
	ht := New(api.NewService(svc), &Config{})
	return ht.server.Handler, gofight.New()
}

func TestItemLifecycle(t *testing.T) {
	handler, r := setup(newItemSvcMocker())

	itemID := ""
	r.POST("/v1/items").
		SetJSON(gofight.D{"name": "Widget"}).
		Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
			assert.Equal(t, http.StatusCreated, r.Code)
			assert.Empty(t, r.Body.String())
			itemID = r.HeaderMap.Get("Location")
		})
	if !assert.NotEmpty(t, itemID) {
		return
	}

	r.GET("/v1/items/"+itemID).Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"id":"%s","name":"Widget"}`, itemID), r.Body.String())
		assert.Equal(t, "application/json", r.HeaderMap.Get("Content-Type"))
	})

	r.PUT("/v1/items/"+itemID).
		SetJSON(gofight.D{"name": "Gadget"}).
		Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
			assert.Equal(t, http.StatusNoContent, r.Code)
			assert.Empty(t, r.Body.String())
		})

	r.GET("/v1/items/"+itemID).Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"id":"%s","name":"Gadget"}`, itemID), r.Body.String())
	})

	r.DELETE("/v1/items/"+itemID).Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	r.GET("/v1/items/"+itemID).Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestItemNotFound(t *testing.T) {
	handler, r := setup(newItemSvcMocker())
	const unusedID = "000000000000000000000000"

	r.PUT("/v1/items/"+unusedID).
		SetJSON(gofight.D{"name": "Gadget"}).
		Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
			assert.Equal(t, http.StatusNotFound, r.Code)
		})

	r.DELETE("/v1/items/"+unusedID).Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})

	r.GET("/v1/items/"+unusedID).Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestItemInternalError(t *testing.T) {
	svc := newItemSvcMocker()
	svc.failWith = errors.Wrap(fmt.Errorf("connection reset by peer"), "could not insert the item")
	handler, r := setup(svc)

	r.POST("/v1/items").
		SetJSON(gofight.D{"name": "Widget"}).
		Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
			assert.Equal(t, http.StatusInternalServerError, r.Code)
			// internal errors are never exposed
			assert.Empty(t, r.Body.String())
			assert.Empty(t, r.HeaderMap.Get("Location"))
		})

	r.PUT("/v1/items/abc").
		SetJSON(gofight.D{"name": "Gadget"}).
		Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
			assert.Equal(t, http.StatusInternalServerError, r.Code)
			assert.Empty(t, r.Body.String())
		})
}

func TestItemMalformedBody(t *testing.T) {
	svc := newItemSvcMocker()
	handler, r := setup(svc)

	r.POST("/v1/items").
		SetBody("{name: ").
		Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
			assert.Equal(t, http.StatusBadRequest, r.Code)
		})

	// a missing name is not validated, it's stored as is
	r.POST("/v1/items").
		SetJSON(gofight.D{}).
		Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
			assert.Equal(t, http.StatusCreated, r.Code)
		})
	assert.Len(t, svc.data, 1)
}

func TestUnmatchedRoute(t *testing.T) {
	handler, r := setup(newItemSvcMocker())

	r.GET("/v1/items").Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusMethodNotAllowed, r.Code)
	})

	r.GET("/v2/items/abc").Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestExistingItemRoutes(t *testing.T) {
	const existingID = "6523f1c2a1b2c3d4e5f60711"
	svc := newItemSvcMocker()
	svc.data[existingID] = "Widget"
	handler, r := setup(svc)

	r.GET("/v1/items/"+existingID).Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, fmt.Sprintf(`{"id":"%s","name":"Widget"}`, existingID), r.Body.String())
	})

	r.PUT("/v1/items/"+existingID).
		SetJSON(gofight.D{"name": "Gadget"}).
		Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
			assert.Equal(t, http.StatusNoContent, r.Code)
		})
	assert.Equal(t, "Gadget", svc.data[existingID])

	r.DELETE("/v1/items/"+existingID).Run(handler, func(r gofight.HTTPResponse, _ gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})
	assert.Empty(t, svc.data)
}

func TestChiURIPattern(t *testing.T) {
	router := newChiRouter(&Config{})
	router.Get("/v1/items/{itemID}", func(http.ResponseWriter, *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/v1/items/abc", nil)
	assert.Equal(t, "/v1/items/{itemID}", chiURIPattern(router, req))

	req = httptest.NewRequest(http.MethodGet, "/v2/items", nil)
	assert.Equal(t, "unmatched-path", chiURIPattern(router, req))
}
