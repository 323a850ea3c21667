package main

import (
	"testing"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildApp(t *testing.T) {
	app := buildApp()
	names := []string{}
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"service", "admin"}, names)
}

func TestLoggingSetup(t *testing.T) {
	sender := grip.GetSender()
	prev := sender.Level()
	defer func() { require.NoError(t, sender.SetLevel(prev)) }()

	require.NoError(t, loggingSetup("scout-test", "debug"))
	assert.Equal(t, level.Debug, grip.GetSender().Level().Threshold)
	assert.Equal(t, "scout-test", grip.GetSender().Name())
}
