package service

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"testing"
)

func TestFormLifecycle(t *testing.T) {
	env := newTestEnv(t)
	forms := NewFormService(env.forms)
	questions := NewQuestionService(env.forms, env.questions)
	ctx := context.Background()

	form, err := forms.Create(ctx, &FormRequest{Title: "  Survey  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if form.Title != "Survey" || form.PublicKey == "" || form.IsPublished {
		t.Fatalf("unexpected form %+v", form)
	}
	if _, err := forms.Create(ctx, &FormRequest{Title: "   "}); !util.IsValidation(err) {
		t.Fatalf("blank title: expected validation error, got %v", err)
	}

	if _, err := forms.Publish(ctx, form.ID); !util.IsValidation(err) {
		t.Fatalf("publishing empty form: expected validation error, got %v", err)
	}

	page, err := forms.CreatePage(ctx, form.ID, &PageRequest{Title: "Intro", Order: 1})
	if err != nil {
		t.Fatalf("CreatePage: %v", err)
	}
	if _, err := questions.Create(ctx, form.ID, &QuestionRequest{
		PageID: page.ID, Type: model.QuestionRadio, Title: "Pick one",
		Options: []OptionRequest{{Label: "yes", Score: num(1)}, {Label: "no"}},
	}); err != nil {
		t.Fatalf("Create question: %v", err)
	}

	published, err := forms.Publish(ctx, form.ID)
	if err != nil || !published.IsPublished || published.PublishedAt == nil {
		t.Fatalf("Publish = %+v, %v", published, err)
	}

	oldKey := published.PublicKey
	rotated, err := forms.RegenerateKey(ctx, form.ID)
	if err != nil || rotated.PublicKey == oldKey {
		t.Fatalf("RegenerateKey = %+v, %v", rotated, err)
	}
	if _, err := env.submissionService().PublishedForm(ctx, oldKey); !util.IsNotFound(err) {
		t.Fatalf("old key should no longer resolve, got %v", err)
	}

	if _, err := forms.Unpublish(ctx, form.ID); err != nil {
		t.Fatalf("Unpublish: %v", err)
	}
	if _, err := env.submissionService().PublishedForm(ctx, rotated.PublicKey); !util.IsNotFound(err) {
		t.Fatalf("unpublished form should not resolve, got %v", err)
	}

	if err := forms.Delete(ctx, form.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := forms.Get(ctx, form.ID); !util.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestQuestionValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	svc := NewQuestionService(env.forms, env.questions)
	ctx := context.Background()

	cases := []struct {
		name string
		req  QuestionRequest
	}{
		{"choice without options", QuestionRequest{PageID: 1, Type: model.QuestionMulti, Title: "x"}},
		{"matrix without columns", QuestionRequest{PageID: 1, Type: model.QuestionMatrix, Title: "x", MatrixRows: []MatrixRowRequest{{Label: "r"}}}},
		{"slider inverted", QuestionRequest{PageID: 1, Type: model.QuestionSlider, Title: "x", SliderMin: num(10), SliderMax: num(1), SliderStep: num(1)}},
		{"page of another form", QuestionRequest{PageID: 99, Type: model.QuestionText, Title: "x"}},
		{"unknown type", QuestionRequest{PageID: 1, Type: model.QuestionType("Essay"), Title: "x"}},
	}
	for _, c := range cases {
		req := c.req
		if _, err := svc.Create(ctx, 1, &req); !util.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", c.name, err)
		}
	}
}

func TestQuestionUpdateKeepsChildIDs(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	svc := NewQuestionService(env.forms, env.questions)
	ctx := context.Background()

	q, err := svc.Update(ctx, 1, &QuestionRequest{
		PageID: 1, Type: model.QuestionRadio, Title: "q1 renamed",
		Options: []OptionRequest{{ID: 12, Label: "b", Score: num(9)}, {Label: "c"}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if q.FindOption(12) == nil || q.FindOption(11) != nil || len(q.Options) != 2 {
		t.Fatalf("unexpected options %+v", q.Options)
	}
	if !q.FindOption(12).Score.Decimal.Equal(dec("9")) {
		t.Fatalf("option 12 score = %s", q.FindOption(12).Score.Decimal)
	}

	if _, err := svc.Update(ctx, 1, &QuestionRequest{PageID: 1, Type: model.QuestionMulti, Title: "x",
		Options: []OptionRequest{{Label: "a"}}}); !util.IsValidation(err) {
		t.Fatalf("changing type: expected validation error, got %v", err)
	}
	if _, err := svc.Update(ctx, 1, &QuestionRequest{PageID: 1, Type: model.QuestionRadio, Title: "x",
		Options: []OptionRequest{{ID: 51, Label: "stolen"}}}); !util.IsValidation(err) {
		t.Fatalf("foreign option id: expected validation error, got %v", err)
	}
}
