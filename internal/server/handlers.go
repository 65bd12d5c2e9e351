package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tournevent/postage/pkg/shipper"
)

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.ListItems(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.catalog.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) createItem(w http.ResponseWriter, r *http.Request) {
	var in shipper.Item
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.catalog.CreateItem(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	var in shipper.Item
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.catalog.UpdateItem(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPackaging(w http.ResponseWriter, r *http.Request) {
	all, err := s.catalog.ListPackaging(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) getPackaging(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetPackaging(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createPackaging(w http.ResponseWriter, r *http.Request) {
	var in shipper.Packaging
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.catalog.CreatePackaging(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updatePackaging(w http.ResponseWriter, r *http.Request) {
	var in shipper.Packaging
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.catalog.UpdatePackaging(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePackaging(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeletePackaging(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getOrigin answers 404 with an empty body until an origin is saved.
func (s *Server) getOrigin(w http.ResponseWriter, r *http.Request) {
	origin, err := s.catalog.Origin(r.Context())
	if err != nil {
		if errors.Is(err, shipper.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, origin)
}

func (s *Server) saveOrigin(w http.ResponseWriter, r *http.Request) {
	var in shipper.OriginSettings
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.catalog.SaveOrigin(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type themeRequest struct {
	ThemePreference string `json:"themePreference"`
}

func (s *Server) setTheme(w http.ResponseWriter, r *http.Request) {
	var in themeRequest
	if err := decode(r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	saved, err := s.catalog.SetTheme(r.Context(), in.ThemePreference)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) createQuote(w http.ResponseWriter, r *http.Request) {
	var req shipper.ShipmentRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	result, err := s.quotes.Quote(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Status(s.providers))
}
