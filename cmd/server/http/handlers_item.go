package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/naughtygopher/errors"
	"go.uber.org/zap"

	"github.com/prashantkr001/item-service/internal/pkg/logger"
)

const urlParamItemID = "itemID"

type itemPayload struct {
	Name string `json:"name"`
}

func (ht *HTTP) itemRoutes(router chi.Router) {
	router.Route("/v1/items", func(r chi.Router) {
		r.Post("/", ht.ErrorHandler(ht.CreateItem))
		r.Put("/{itemID}", ht.ErrorHandler(ht.UpdateItem))
		r.Get("/{itemID}", ht.ErrorHandler(ht.GetItem))
		r.Delete("/{itemID}", ht.ErrorHandler(ht.DeleteItem))
	})
}

func decodeItemPayload(req *http.Request) (*itemPayload, error) {
	payload := new(itemPayload)
	err := json.NewDecoder(req.Body).Decode(payload)
	if err != nil {
		return nil, errors.InputBodyf("failed to decode request body: %s", err.Error())
	}
	return payload, nil
}

// CreateItem responds with 201 and the ID of the new item as the Location header
func (ht *HTTP) CreateItem(w http.ResponseWriter, req *http.Request) error {
	payload, err := decodeItemPayload(req)
	if err != nil {
		return err
	}
	logger.InfoCtx(req.Context(), "received request to create item", zap.String("name", payload.Name))

	id, err := ht.apis.ItemCreate(req.Context(), payload.Name)
	if err != nil {
		return err
	}

	w.Header().Set("Location", id)
	w.WriteHeader(http.StatusCreated)
	return nil
}

func (ht *HTTP) UpdateItem(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, urlParamItemID)
	payload, err := decodeItemPayload(req)
	if err != nil {
		return err
	}
	logger.InfoCtx(
		req.Context(),
		"received request to update item",
		zap.String("id", id),
		zap.String("name", payload.Name),
	)

	err = ht.apis.ItemUpdate(req.Context(), id, payload.Name)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (ht *HTTP) GetItem(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, urlParamItemID)
	logger.InfoCtx(req.Context(), "looking up item", zap.String("id", id))

	found, err := ht.apis.ItemGet(req.Context(), id)
	if err != nil {
		return err
	}

	jResp, err := json.Marshal(found)
	if err != nil {
		return errors.Wrap(err, "failed to marshal response")
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(jResp)
	if err != nil {
		return errors.Wrap(err, "failed to write response")
	}

	return nil
}

func (ht *HTTP) DeleteItem(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, urlParamItemID)
	logger.InfoCtx(req.Context(), "deleting item", zap.String("id", id))

	err := ht.apis.ItemDelete(req.Context(), id)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
