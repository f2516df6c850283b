package main

import (
	"testing"

	"github.com/paintworks/paintworks/internal/app"
	_ "github.com/paintworks/paintworks/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("expected test mode")
	}
	main()
}
