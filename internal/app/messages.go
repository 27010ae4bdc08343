package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"pulsar.klederson.com/internal/stream"
)

// StreamMsg carries a stream event into the update loop.
type StreamMsg stream.Event

// Sender delivers messages to the running program, normally (*tea.Program).Send.
type Sender func(msg tea.Msg)
