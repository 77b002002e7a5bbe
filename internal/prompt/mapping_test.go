package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-docfill/pkg/model"
)

type stubDriver struct {
	selectIdx    []int
	confirm      []bool
	selectPos    int
	confirmPos   int
	infoMessages []string
	prompts      []SelectConfig
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	s.prompts = append(s.prompts, cfg)
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func TestResolveUnmapped(t *testing.T) {
	driver := &stubDriver{selectIdx: []int{2, 0}}
	table := model.MappingTable{"姓名": "姓名"}

	got, err := ResolveUnmapped(context.Background(), driver, table, []string{"手机", "籍贯"}, []string{"姓名", "电话"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := model.MappingTable{"姓名": "姓名", "手机": "电话"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
	if len(table) != 1 {
		t.Fatalf("input table mutated: %v", table)
	}
	if len(driver.infoMessages) != 1 {
		t.Fatalf("expected one info line, got %v", driver.infoMessages)
	}
	if driver.prompts[0].Options[0] != LeaveUnmapped {
		t.Fatalf("first option = %q", driver.prompts[0].Options[0])
	}
}

func TestResolveUnmapped_NothingToAsk(t *testing.T) {
	driver := &stubDriver{}
	got, err := ResolveUnmapped(context.Background(), driver, nil, nil, []string{"姓名"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 0 || len(driver.infoMessages) != 0 {
		t.Fatalf("unexpected prompts: %v %v", got, driver.infoMessages)
	}
}

func TestResolveUnmapped_Aborted(t *testing.T) {
	driver := &stubDriver{}
	_, err := ResolveUnmapped(context.Background(), driver, nil, []string{"x"}, []string{"姓名"})
	if err == nil {
		t.Fatalf("expected error when the driver fails")
	}
}

func TestConfirmSave(t *testing.T) {
	driver := &stubDriver{confirm: []bool{true}}
	ok, err := ConfirmSave(context.Background(), driver, "form")
	if err != nil || !ok {
		t.Fatalf("confirm = %v, %v", ok, err)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	other := errors.New("boom")
	if !errors.Is(translateSurveyErr(other), other) {
		t.Fatalf("unrelated errors pass through")
	}
}
