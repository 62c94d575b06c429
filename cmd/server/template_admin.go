package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/moyu7925/bag-unit-price-calculator/internal/pricing"
	"github.com/moyu7925/bag-unit-price-calculator/internal/templates"
)

var settingsLabels = []struct {
	key   string
	label string
}{
	{pricing.KeyParamValue, "参数值"},
	{pricing.KeyMaterialPrice, "原料价格"},
	{pricing.KeyProcessParam, "加工工费参数"},
	{pricing.KeyPrintParam, "印刷工费参数"},
	{pricing.KeyPlatePriceCopper, "铜板价格"},
	{pricing.KeyPlatePriceRubber, "胶版价格"},
	{pricing.KeyMinProcessFee, "最低加工费"},
}

func (s *server) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List()
	if err != nil {
		log.WithError(err).Error("list templates")
		http.Error(w, "failed to load templates", http.StatusInternalServerError)
		return
	}

	data := templatesViewData{
		baseViewData: baseViewData{
			ErrorMessage:   r.URL.Query().Get("error"),
			SuccessMessage: r.URL.Query().Get("success"),
		},
		Templates:     list,
		MaterialTypes: pricing.MaterialTypeLabels(),
	}

	if name := r.URL.Query().Get("name"); name != "" {
		tpl, err := s.store.Get(name)
		switch {
		case errors.Is(err, templates.ErrNotFound):
			http.NotFound(w, r)
			return
		case err != nil:
			log.WithError(err).Error("load template")
			http.Error(w, "failed to load template", http.StatusInternalServerError)
			return
		}

		settings, err := pricing.ParseSettings(tpl.Settings)
		if err != nil {
			data.ErrorMessage = err.Error()
			settings = pricing.DefaultSettings()
		}

		data.Selected = &tpl
		data.MaterialType = settings.MaterialType.String()
		data.Flags = map[string]bool{
			pricing.KeyMaterialEnabled: settings.MaterialEnabled,
			pricing.KeyProcessEnabled:  settings.ProcessEnabled,
			pricing.KeyPrintEnabled:    settings.PrintEnabled,
		}
		for _, f := range settingsLabels {
			data.Fields = append(data.Fields, settingsField{Key: f.key, Label: f.label, Value: tpl.Settings[f.key]})
		}
	}

	s.renderTemplate(w, "templates.html", data)
}

// handleTemplateCreate creates a template seeded with the default template's
// settings, or the stock settings when there is no default.
func (s *server) handleTemplateCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	rec := pricing.DefaultRecord()

	defaultName, err := s.store.DefaultName()
	if err != nil {
		log.WithError(err).Error("load default template")
		http.Error(w, "failed to create template", http.StatusInternalServerError)
		return
	}
	if defaultName != "" {
		tpl, err := s.store.Get(defaultName)
		if err != nil {
			log.WithError(err).Error("load default template")
			http.Error(w, "failed to create template", http.StatusInternalServerError)
			return
		}
		rec = tpl.Settings
	}

	if err := s.store.Create(name, rec, false); err != nil {
		s.redirectTemplateError(w, r, "", err)
		return
	}
	redirectTemplates(w, r, name, "", "创建成功")
}

func (s *server) handleTemplateUpdate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if err := s.store.Update(name, parseSettingsForm(r)); err != nil {
		s.redirectTemplateError(w, r, name, err)
		return
	}
	redirectTemplates(w, r, name, "", "设置已保存")
}

func (s *server) handleTemplateRename(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	newName := strings.TrimSpace(r.FormValue("new_name"))
	if err := s.store.Rename(name, newName); err != nil {
		s.redirectTemplateError(w, r, name, err)
		return
	}
	redirectTemplates(w, r, newName, "", "重命名成功")
}

func (s *server) handleTemplateDuplicate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	newName := strings.TrimSpace(r.FormValue("new_name"))
	if err := s.store.Duplicate(name, newName); err != nil {
		s.redirectTemplateError(w, r, name, err)
		return
	}
	redirectTemplates(w, r, newName, "", "复制成功")
}

func (s *server) handleTemplateDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.store.Delete(name); err != nil {
		s.redirectTemplateError(w, r, name, err)
		return
	}
	redirectTemplates(w, r, "", "", "删除成功")
}

func (s *server) handleTemplateSetDefault(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.store.SetDefault(name); err != nil {
		s.redirectTemplateError(w, r, name, err)
		return
	}
	redirectTemplates(w, r, name, "", "已设为默认模板")
}

// handleTemplateApply makes the template the last used one and returns to
// the calculator, which then starts from it.
func (s *server) handleTemplateApply(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.store.SetLastUsed(name); err != nil {
		s.redirectTemplateError(w, r, name, err)
		return
	}
	http.Redirect(w, r, "/?success="+url.QueryEscape("已应用模板 "+name), http.StatusSeeOther)
}

func (s *server) redirectTemplateError(w http.ResponseWriter, r *http.Request, name string, err error) {
	msg, ok := templateErrorMessage(err)
	if !ok {
		log.WithError(err).WithField("template", name).Error("template operation")
		http.Error(w, "template operation failed", http.StatusInternalServerError)
		return
	}
	redirectTemplates(w, r, name, msg, "")
}

func templateErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, templates.ErrEmptyName):
		return "请输入模板名称", true
	case errors.Is(err, templates.ErrExists):
		return "模板名称已存在", true
	case errors.Is(err, templates.ErrNotFound):
		return "模板不存在", true
	case errors.Is(err, templates.ErrDefaultProtected):
		return "默认模板无法删除或重命名", true
	case errors.Is(err, templates.ErrInvalidSettings):
		return strings.TrimPrefix(err.Error(), templates.ErrInvalidSettings.Error()+": "), true
	default:
		return "", false
	}
}

func redirectTemplates(w http.ResponseWriter, r *http.Request, name, errMsg, successMsg string) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if errMsg != "" {
		q.Set("error", errMsg)
	}
	if successMsg != "" {
		q.Set("success", successMsg)
	}

	target := "/templates"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
