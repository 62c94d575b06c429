package main

import (
	"embed"
	"html/template"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/moyu7925/bag-unit-price-calculator/internal/pricing"
	"github.com/moyu7925/bag-unit-price-calculator/internal/templates"
)

//go:embed web/templates/*.html
var webFS embed.FS

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
}

// resultView is the display form of a calculation: every number carries
// exactly three decimals.
type resultView struct {
	Template          string `json:"template"`
	Spec              string `json:"spec"`
	MaterialUnitPrice string `json:"material_unit_price"`
	MaterialWeight    string `json:"material_weight"`
	ProcessUnitPrice  string `json:"process_unit_price"`
	ProcessFee        string `json:"process_fee"`
	PrintUnitPrice    string `json:"print_unit_price"`
	PrintFee          string `json:"print_fee"`
	MaterialTypePrice string `json:"material_type_price"`
	BagUnitPrice      string `json:"bag_unit_price"`
	TotalFee          string `json:"total_fee"`
	DetailText        string `json:"detail_text"`
}

func newResultView(templateName string, r pricing.Result) resultView {
	b := r.Breakdown
	return resultView{
		Template:          templateName,
		Spec:              r.Spec,
		MaterialUnitPrice: pricing.Fixed(b.Material.UnitPrice),
		MaterialWeight:    pricing.Fixed(b.Material.Weight),
		ProcessUnitPrice:  pricing.Fixed(b.Process.UnitPrice),
		ProcessFee:        pricing.Fixed(b.Process.Fee),
		PrintUnitPrice:    pricing.Fixed(b.Print.UnitPrice),
		PrintFee:          pricing.Fixed(b.Print.Fee),
		MaterialTypePrice: pricing.Fixed(b.Print.PlatePrice),
		BagUnitPrice:      pricing.Fixed(r.Totals.BagUnitPrice),
		TotalFee:          pricing.Fixed(r.Totals.TotalFee),
		DetailText:        r.Detail,
	}
}

// calculatorForm refills the calculator page with what the operator sent.
type calculatorForm struct {
	Opening         string
	Width           string
	Thickness       string
	ParamValue      string
	MaterialPrice   string
	Quantity        string
	ProcessParam    string
	PrintParam      string
	MaterialType    string
	MaterialEnabled bool
	ProcessEnabled  bool
	PrintEnabled    bool
}

func newCalculatorForm(req calculationRequest, s pricing.Settings) calculatorForm {
	return calculatorForm{
		Opening:         string(req.Opening),
		Width:           string(req.Width),
		Thickness:       string(req.Thickness),
		ParamValue:      string(req.ParamValue),
		MaterialPrice:   string(req.MaterialPrice),
		Quantity:        string(req.Quantity),
		ProcessParam:    string(req.ProcessParam),
		PrintParam:      string(req.PrintParam),
		MaterialType:    req.MaterialType,
		MaterialEnabled: s.MaterialEnabled,
		ProcessEnabled:  s.ProcessEnabled,
		PrintEnabled:    s.PrintEnabled,
	}
}

type calculatorViewData struct {
	baseViewData
	Templates     []templates.Template
	Template      string
	MaterialTypes []string
	Form          calculatorForm
	Result        *resultView
}

type settingsField struct {
	Key   string
	Label string
	Value string
}

type templatesViewData struct {
	baseViewData
	Templates     []templates.Template
	Selected      *templates.Template
	Fields        []settingsField
	MaterialTypes []string
	MaterialType  string
	Flags         map[string]bool
}

func (s *server) renderTemplate(w http.ResponseWriter, page string, data any) {
	tpl, err := template.ParseFS(webFS,
		"web/templates/layout.html",
		"web/templates/"+page,
	)
	if err != nil {
		log.WithError(err).WithField("page", page).Error("parse template")
		http.Error(w, "failed to parse template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		log.WithError(err).WithField("page", page).Error("render template")
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}
}
