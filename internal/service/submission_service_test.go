package service

import (
	"context"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"testing"
)

func validAnswers() []SubmittedAnswer {
	return []SubmittedAnswer{
		{QuestionID: 1, OptionIDs: []uint{12}},
		{QuestionID: 2, Value: num(40)},
		{QuestionID: 3, Matrix: []MatrixSelection{{RowID: 31, ColumnID: 41}, {RowID: 32, ColumnID: 41}}},
		{QuestionID: 4, Text: "  fine  "},
	}
}

func TestSubmitPersistsScoredSubmission(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	svc := env.submissionService()
	ctx := context.Background()

	res, err := svc.Submit(ctx, "public-key", &SubmitRequest{RespondentRef: "r-1", Answers: validAnswers()})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !res.TotalScore.Equal(dec("15")) {
		t.Fatalf("total = %s, want 15", res.TotalScore)
	}
	if res.Status != model.SubmissionCompleted {
		t.Fatalf("status = %s", res.Status)
	}

	stored, err := svc.Get(ctx, res.SubmissionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Answers) != 4 || !stored.TotalScore.Equal(dec("15")) {
		t.Fatalf("stored answers=%d total=%s", len(stored.Answers), stored.TotalScore)
	}
	for _, a := range stored.Answers {
		if a.QuestionID == 4 && a.Values[0].TextValue != "fine" {
			t.Fatalf("text not trimmed: %q", a.Values[0].TextValue)
		}
		if a.QuestionID == 3 && (len(a.Values) != 2 || !a.Score.Equal(dec("10"))) {
			t.Fatalf("matrix answer values=%d score=%s", len(a.Values), a.Score)
		}
	}
	if env.events.count(EventSubmissionCreated) != 1 {
		t.Fatal("submission.created not published")
	}
}

func TestSubmitHiddenRequiredQuestionNotEnforced(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t, model.Rule{
		BaseModel: base(1), SourceQuestionID: 2, Condition: model.ConditionScoreGreaterThan,
		Value: num(50), Action: model.ActionHideQuestion, TargetQuestionID: uintPtr(4),
	})
	svc := env.submissionService()
	ctx := context.Background()

	// 75 > 50 隐藏 q4，q4 虽为必答但不再要求，提交的答案被丢弃
	answers := []SubmittedAnswer{{QuestionID: 2, Value: num(75)}, {QuestionID: 4, Text: "ignored"}}
	res, err := svc.Submit(ctx, "public-key", &SubmitRequest{Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(res.Evaluation.HiddenQuestionIDs) != 1 || res.Evaluation.HiddenQuestionIDs[0] != 4 {
		t.Fatalf("hidden = %v", res.Evaluation.HiddenQuestionIDs)
	}
	stored, _ := svc.Get(ctx, res.SubmissionID)
	for _, a := range stored.Answers {
		if a.QuestionID == 4 {
			t.Fatal("answer to hidden question must be dropped")
		}
	}

	// 40 不触发，q4 缺失应被拒绝
	_, err = svc.Submit(ctx, "public-key", &SubmitRequest{Answers: []SubmittedAnswer{{QuestionID: 2, Value: num(40)}}})
	if !util.IsValidation(err) {
		t.Fatalf("expected validation error for missing required answer, got %v", err)
	}
}

func TestSubmitSkipAndTerminate(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t,
		model.Rule{BaseModel: base(1), SourceQuestionID: 1, Condition: model.ConditionIsSelected,
			TriggerOptionID: uintPtr(11), Action: model.ActionSkipToPage, TargetPageID: uintPtr(3), Order: 1},
		model.Rule{BaseModel: base(2), SourceQuestionID: 2, Condition: model.ConditionIsLessThan,
			Value: num(5), Action: model.ActionTerminateForm, Order: 2},
	)
	svc := env.submissionService()
	ctx := context.Background()

	// 跳过第 2 页，q4 必答不再要求，第 2 页的矩阵作答不计分
	res, err := svc.Submit(ctx, "public-key", &SubmitRequest{Answers: []SubmittedAnswer{
		{QuestionID: 1, OptionIDs: []uint{11}},
		{QuestionID: 2, Value: num(50)},
		{QuestionID: 3, Matrix: []MatrixSelection{{RowID: 31, ColumnID: 41}}},
		{QuestionID: 5, OptionIDs: []uint{51}},
	}})
	if err != nil {
		t.Fatalf("Submit with skip: %v", err)
	}
	if res.Evaluation.SkipToPageID == nil || *res.Evaluation.SkipToPageID != 3 {
		t.Fatalf("skip = %v", res.Evaluation.SkipToPageID)
	}
	if !res.TotalScore.Equal(dec("3")) {
		t.Fatalf("skip total = %s, want 3", res.TotalScore)
	}
	assertStoredQuestions(t, svc, res.SubmissionID, 1, 2, 5)

	// q2 < 5 在第 1 页终止，后续页的作答全部丢弃
	res, err = svc.Submit(ctx, "public-key", &SubmitRequest{Answers: []SubmittedAnswer{
		{QuestionID: 1, OptionIDs: []uint{12}},
		{QuestionID: 2, Value: num(1)},
		{QuestionID: 3, Matrix: []MatrixSelection{{RowID: 31, ColumnID: 41}, {RowID: 32, ColumnID: 41}}},
		{QuestionID: 5, OptionIDs: []uint{51}},
	}})
	if err != nil {
		t.Fatalf("Submit with terminate: %v", err)
	}
	if res.Status != model.SubmissionTerminated {
		t.Fatalf("status = %s, want terminated", res.Status)
	}
	if !res.TotalScore.Equal(dec("5")) {
		t.Fatalf("terminate total = %s, want 5", res.TotalScore)
	}
	assertStoredQuestions(t, svc, res.SubmissionID, 1, 2)
}

func assertStoredQuestions(t *testing.T, svc *SubmissionService, id uint, want ...uint) {
	t.Helper()
	stored, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Answers) != len(want) {
		t.Fatalf("stored %d answers, want questions %v", len(stored.Answers), want)
	}
	for i, a := range stored.Answers {
		if a.QuestionID != want[i] {
			t.Fatalf("answer %d is for question %d, want %d", i, a.QuestionID, want[i])
		}
	}
	total := dec("0")
	for _, a := range stored.Answers {
		total = total.Add(a.Score)
	}
	if !total.Equal(stored.TotalScore) {
		t.Fatalf("stored total %s != sum of answers %s", stored.TotalScore, total)
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t)
	svc := env.submissionService()
	ctx := context.Background()

	cases := []struct {
		name    string
		answers []SubmittedAnswer
	}{
		{"unknown question", []SubmittedAnswer{{QuestionID: 99, Text: "x"}}},
		{"duplicate question", []SubmittedAnswer{{QuestionID: 2, Value: num(1)}, {QuestionID: 2, Value: num(2)}}},
		{"foreign option", []SubmittedAnswer{{QuestionID: 1, OptionIDs: []uint{51}}}},
		{"radio with two options", []SubmittedAnswer{{QuestionID: 1, OptionIDs: []uint{11, 12}}}},
		{"foreign matrix cell", []SubmittedAnswer{{QuestionID: 3, Matrix: []MatrixSelection{{RowID: 31, ColumnID: 99}}}}},
		{"slider out of range", []SubmittedAnswer{{QuestionID: 2, Value: num(101)}}},
		{"bad date", []SubmittedAnswer{{QuestionID: 6, Date: "03/09/2024"}}},
	}
	for _, c := range cases {
		answers := append(c.answers, SubmittedAnswer{QuestionID: 4, Text: "ok"})
		_, err := svc.Submit(ctx, "public-key", &SubmitRequest{Answers: answers})
		if !util.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", c.name, err)
		}
	}
}

func TestSubmitUnpublishedOrUnknownForm(t *testing.T) {
	env := newTestEnv(t)
	form := env.seedSample(t)
	svc := env.submissionService()
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "nope", &SubmitRequest{}); !util.IsNotFound(err) {
		t.Fatalf("unknown key: expected not found, got %v", err)
	}
	if err := env.db.Model(form).Update("is_published", false).Error; err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if _, err := svc.Submit(ctx, "public-key", &SubmitRequest{}); !util.IsNotFound(err) {
		t.Fatalf("unpublished: expected not found, got %v", err)
	}
}

func TestSubmitInvalidRuleIsIntegrityError(t *testing.T) {
	env := newTestEnv(t)
	env.seedSample(t, model.Rule{BaseModel: base(1), SourceQuestionID: 404, Condition: model.ConditionIsSelected,
		TriggerOptionID: uintPtr(11), Action: model.ActionTerminateForm})
	svc := env.submissionService()

	_, err := svc.Submit(context.Background(), "public-key", &SubmitRequest{Answers: validAnswers()})
	if err == nil || util.IsValidation(err) || util.IsNotFound(err) {
		t.Fatalf("expected data-integrity error, got %v", err)
	}
}
