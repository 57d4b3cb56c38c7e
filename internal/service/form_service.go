package service

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"questionnaire_backend/pkg/logger"
	"strings"
	"time"

	"go.uber.org/zap"
)

type FormRequest struct {
	Title       string `json:"title" binding:"required,max=255"`
	Description string `json:"description"`
}

type PageRequest struct {
	Title string `json:"title" binding:"max=255"`
	Order int    `json:"order"`
}

type FormService struct {
	forms FormStore
}

func NewFormService(forms FormStore) *FormService {
	return &FormService{forms: forms}
}

func (s *FormService) Create(ctx context.Context, req *FormRequest) (*model.Form, error) {
	form := &model.Form{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		PublicKey:   model.GenerateUUID(),
	}
	if form.Title == "" {
		return nil, util.NewValidationError("title", "must not be blank")
	}
	if err := s.forms.Create(ctx, form); err != nil {
		return nil, err
	}
	logger.Log.Info("Form created", zap.Uint("formId", form.ID))
	return form, nil
}

func (s *FormService) List(ctx context.Context, search string, page, limit int) ([]model.Form, int64, error) {
	return s.forms.List(ctx, strings.TrimSpace(search), page, limit)
}

// Get 返回包含页、题目、选项的完整结构
func (s *FormService) Get(ctx context.Context, id uint) (*model.Form, error) {
	return s.forms.LoadStructure(ctx, id)
}

func (s *FormService) Update(ctx context.Context, id uint, req *FormRequest) (*model.Form, error) {
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, util.NewValidationError("title", "must not be blank")
	}
	form.Title = title
	form.Description = req.Description
	if err := s.forms.Update(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) Delete(ctx context.Context, id uint) error {
	if err := s.forms.Delete(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("Form deleted", zap.Uint("formId", id))
	return nil
}

// Publish 至少需要一道题目
func (s *FormService) Publish(ctx context.Context, id uint) (*model.Form, error) {
	full, err := s.forms.LoadStructure(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(model.NewFormStructure(full).OrderedQuestions()) == 0 {
		return nil, util.NewValidationError("form", "cannot publish a form without questions")
	}
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !form.IsPublished {
		now := time.Now()
		form.IsPublished = true
		form.PublishedAt = &now
		if err := s.forms.Update(ctx, form); err != nil {
			return nil, err
		}
		logger.Log.Info("Form published", zap.Uint("formId", id))
	}
	return form, nil
}

func (s *FormService) Unpublish(ctx context.Context, id uint) (*model.Form, error) {
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if form.IsPublished {
		form.IsPublished = false
		if err := s.forms.Update(ctx, form); err != nil {
			return nil, err
		}
	}
	return form, nil
}

// RegenerateKey 旧 key 立即失效
func (s *FormService) RegenerateKey(ctx context.Context, id uint) (*model.Form, error) {
	form, err := s.forms.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	form.PublicKey = model.GenerateUUID()
	if err := s.forms.Update(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) CreatePage(ctx context.Context, formID uint, req *PageRequest) (*model.Page, error) {
	if _, err := s.forms.FindByID(ctx, formID); err != nil {
		return nil, err
	}
	page := &model.Page{FormID: formID, Title: strings.TrimSpace(req.Title), Order: req.Order}
	if err := s.forms.CreatePage(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *FormService) ListPages(ctx context.Context, formID uint) ([]model.Page, error) {
	if _, err := s.forms.FindByID(ctx, formID); err != nil {
		return nil, err
	}
	return s.forms.ListPages(ctx, formID)
}

func (s *FormService) UpdatePage(ctx context.Context, formID, pageID uint, req *PageRequest) (*model.Page, error) {
	page, err := s.forms.FindPage(ctx, formID, pageID)
	if err != nil {
		return nil, err
	}
	page.Title = strings.TrimSpace(req.Title)
	page.Order = req.Order
	if err := s.forms.UpdatePage(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *FormService) DeletePage(ctx context.Context, formID, pageID uint) error {
	return s.forms.DeletePage(ctx, formID, pageID)
}
