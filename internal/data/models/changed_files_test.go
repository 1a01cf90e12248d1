package models

import (
	"reflect"
	"testing"
)

func TestChangedFiles_Paths(t *testing.T) {
	var nilFiles *ChangedFiles
	if got := nilFiles.Paths(); got != nil {
		t.Fatalf("expected nil for nil receiver, got %v", got)
	}

	cf := &ChangedFiles{Files: []ChangedFile{
		{Path: "src/app.go", Status: FileModified},
		{Path: "CHANGES.md", PreviousPath: "CHANGELOG.md", Status: FileRenamed},
		{Path: "", Status: FileModified},
		{Path: "old.txt", Status: FileRemoved},
	}}
	want := []string{"src/app.go", "CHANGES.md", "old.txt"}
	if got := cf.Paths(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
