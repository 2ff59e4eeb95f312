package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"lootexchange/app/auth"
	"lootexchange/app/bag"
	"lootexchange/app/listing"
	"lootexchange/app/models"
	"lootexchange/app/notifier"
	"lootexchange/app/session"
	"lootexchange/pkg/response"
	"lootexchange/pkg/web"
)

const (
	apiPrefix       = "/api/v1"
	signatureHeader = "x-signature"
)

// Rest is a gateway for incoming HTTP requests
type Rest struct {
	Router   chi.Router
	Session  session.Service
	Bag      bag.Service
	Listing  listing.Service
	Notifier notifier.Service
	Auth     auth.Service
}

func (s *Rest) Route() {
	s.Router.Route(apiPrefix, func(r chi.Router) {
		// semi-public routes (signature required)
		r.Post("/session", s.createSession)

		// public routes, the access token is optional
		r.Group(func(r chi.Router) {
			r.Use(s.Auth.GetJWTVerifier())

			r.Get("/bags/{id}", s.getBag)
			r.Get("/networks/current", s.currentNetwork)
		})

		// private routes
		r.Group(func(r chi.Router) {
			r.Use(s.Auth.GetJWTVerifier(), s.Auth.GetJWTAuthenticator())

			r.Get("/subscribe", s.subscribe)

			r.Post("/listings", s.createListing)
			r.Get("/listings", s.listListings)
			r.Get("/listings/{id}", s.getListing)
			r.Delete("/listings/{id}", s.cancelListing)
		})
	})
}

func (s *Rest) createSession(w http.ResponseWriter, r *http.Request) {
	in := new(models.NewSession)
	if err := render.DecodeJSON(r.Body, in); err != nil {
		web.RenderError(w, r, response.NewError(response.CodeBadRequest, "invalid request body").SetInternal(err))
		return
	}
	in.Signature = r.Header.Get(signatureHeader)

	out, err := s.Session.CreateSession(r.Context(), in)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}

func (s *Rest) getBag(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		web.RenderError(w, r, response.NewError(response.CodeBadRequest, "invalid bag id provided"))
		return
	}

	in := &models.BagFilter{
		ID:          id,
		CurrentUser: auth.CurrentUser(r.Context()),
	}

	out, err := s.Bag.GetBag(r.Context(), in)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}

func (s *Rest) currentNetwork(w http.ResponseWriter, r *http.Request) {
	out, err := s.Listing.CurrentNetwork(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}

func (s *Rest) subscribe(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	if err := s.Notifier.Subscribe(r.Context(), &models.NewSubscription{
		ClientID:       accessToken.Wallet,
		ResponseWriter: w,
		Request:        r,
	}); err != nil {
		web.RenderError(w, r, err)
		return
	}
}

func (s *Rest) createListing(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	in := new(models.NewListing)
	if err := render.DecodeJSON(r.Body, in); err != nil {
		web.RenderError(w, r, response.NewError(response.CodeBadRequest, "invalid request body").SetInternal(err))
		return
	}
	in.RequestedBy = accessToken.Wallet

	out, err := s.Listing.CreateListing(r.Context(), in)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	web.RenderResult(w, r, out)
}

func (s *Rest) listListings(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	out, err := s.Listing.ListListings(r.Context(), &models.ListingFilter{RequestedBy: accessToken.Wallet})
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}

func (s *Rest) getListing(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	in := &models.ListingFilter{
		ID:          chi.URLParam(r, "id"),
		RequestedBy: accessToken.Wallet,
	}

	out, err := s.Listing.GetListing(r.Context(), in)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}

func (s *Rest) cancelListing(w http.ResponseWriter, r *http.Request) {
	accessToken, err := models.AccessTokenFromContext(r.Context())
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	in := &models.ListingFilter{
		ID:          chi.URLParam(r, "id"),
		RequestedBy: accessToken.Wallet,
	}

	out, err := s.Listing.CancelListing(r.Context(), in)
	if err != nil {
		web.RenderError(w, r, err)
		return
	}

	web.RenderResult(w, r, out)
}
