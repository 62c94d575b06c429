package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/moyu7925/bag-unit-price-calculator/internal/pricing"
	"github.com/moyu7925/bag-unit-price-calculator/internal/templates"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// resolveSettings loads the named template, or the active one when name is
// empty, and resolves its record into engine settings.
func (s *server) resolveSettings(name string) (templates.Template, pricing.Settings, error) {
	var (
		tpl templates.Template
		err error
	)
	if name == "" {
		tpl, err = s.store.Active()
	} else {
		tpl, err = s.store.Get(name)
	}
	if err != nil {
		return templates.Template{}, pricing.Settings{}, err
	}

	settings, err := pricing.ParseSettings(tpl.Settings)
	if err != nil {
		return templates.Template{}, pricing.Settings{}, fmt.Errorf("template %q: %w", tpl.Name, err)
	}
	return tpl, settings, nil
}

// calculate runs one calculation request against its template.
func (s *server) calculate(req calculationRequest) (resultView, pricing.Settings, error) {
	tpl, settings, err := s.resolveSettings(req.Template)
	if err != nil {
		return resultView{}, pricing.Settings{}, err
	}
	req.applyFlags(&settings)

	raw := req.rawInputs()
	if err := validateInputs(raw); err != nil {
		return resultView{}, settings, err
	}

	result, err := pricing.Quote(raw, settings)
	if err != nil {
		return resultView{}, settings, err
	}
	return newResultView(tpl.Name, result), settings, nil
}

func errorStatus(err error) int {
	var vErr *validationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, pricing.ErrCalculation):
		return http.StatusBadRequest
	case errors.Is(err, templates.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	tpl, settings, err := s.resolveSettings("")
	if err != nil {
		log.WithError(err).Error("resolve active template")
		http.Error(w, "failed to load template", http.StatusInternalServerError)
		return
	}

	req := calculationRequest{
		Template:      tpl.Name,
		ParamValue:    numberText(tpl.Settings[pricing.KeyParamValue]),
		MaterialPrice: numberText(tpl.Settings[pricing.KeyMaterialPrice]),
		ProcessParam:  numberText(tpl.Settings[pricing.KeyProcessParam]),
		PrintParam:    numberText(tpl.Settings[pricing.KeyPrintParam]),
		MaterialType:  settings.MaterialType.String(),
	}
	s.renderCalculator(w, http.StatusOK, req, baseViewData{
		ErrorMessage:   r.URL.Query().Get("error"),
		SuccessMessage: r.URL.Query().Get("success"),
	})
}

func (s *server) handleCalculateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	s.renderCalculator(w, http.StatusOK, parseCalculationForm(r), baseViewData{})
}

// renderCalculator computes req and renders the calculator page. Calculation
// problems are shown on the page next to the operator's input.
func (s *server) renderCalculator(w http.ResponseWriter, status int, req calculationRequest, base baseViewData) {
	list, err := s.store.List()
	if err != nil {
		log.WithError(err).Error("list templates")
		http.Error(w, "failed to load templates", http.StatusInternalServerError)
		return
	}

	view, settings, err := s.calculate(req)
	data := calculatorViewData{
		baseViewData:  base,
		Templates:     list,
		Template:      req.Template,
		MaterialTypes: pricing.MaterialTypeLabels(),
		Form:          newCalculatorForm(req, settings),
	}
	if err != nil {
		status = errorStatus(err)
		if status == http.StatusInternalServerError {
			log.WithError(err).Error("calculate")
		}
		data.ErrorMessage = err.Error()
	} else {
		data.Result = &view
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	s.renderTemplate(w, "calculator.html", data)
}

func (s *server) handleCalculateAPI(w http.ResponseWriter, r *http.Request) {
	var req calculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	view, _, err := s.calculate(req)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			log.WithError(err).Error("calculate")
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleCalculateText(w http.ResponseWriter, r *http.Request) {
	var req calculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	view, _, err := s.calculate(req)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(view.DetailText))
}

// handleLiveCalculate recomputes on every message the front end sends while
// the operator edits fields.
func (s *server) handleLiveCalculate(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("websocket read")
			}
			return
		}

		var reply any
		var req calculationRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			reply = map[string]string{"error": "invalid JSON message"}
		} else if view, _, err := s.calculate(req); err != nil {
			reply = map[string]string{"error": err.Error()}
		} else {
			reply = view
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("websocket write")
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("encode JSON response")
	}
}
