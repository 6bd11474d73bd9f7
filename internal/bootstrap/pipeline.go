package bootstrap

import (
	"log/slog"

	"fly-voice/config"
	"fly-voice/internal/application"
	"fly-voice/internal/scratch"
)

// Pipeline is the transcription and chat services with their readiness gates.
type Pipeline struct {
	Transcription *application.Transcription
	Chat          *application.Chat
	Engines       *application.Engines
	Scratch       *scratch.Dir
	Transcriber   Transcriber
	ReplyEngine   string
}

// NewPipeline wires services for cfg. Chat is nil when the reply engine is "none".
func NewPipeline(cfg *config.Config, observer application.Observer, logger *slog.Logger) (*Pipeline, error) {
	tr, err := NewTranscriber(cfg.Transcriber, logger)
	if err != nil {
		return nil, err
	}
	gen, err := NewReplyGenerator(cfg.Reply, logger)
	if err != nil {
		return nil, err
	}

	dir := scratch.NewDir(cfg.Audio.ScratchDir, logger)
	if n, err := dir.Sweep(); err != nil {
		logger.Warn("sweeping scratch dir", "dir", dir.Path(), "error", err)
	} else if n > 0 {
		logger.Info("removed stale scratch files", "dir", dir.Path(), "count", n)
	}

	sttGate := Gate(application.RoleTranscriber, tr.STT.Name(), tr.STT)
	gates := []*application.Engine{sttGate}

	p := &Pipeline{
		Transcription: application.NewTranscription(tr.STT, sttGate, dir, cfg.Audio.SampleRate, observer, logger),
		Scratch:       dir,
		Transcriber:   tr,
		ReplyEngine:   cfg.Reply.Engine,
	}

	if gen != nil {
		replyGate := Gate(application.RoleReply, gen.Name(), gen)
		gates = append(gates, replyGate)
		p.Chat = application.NewChat(gen, replyGate, observer, logger)
	}

	p.Engines = application.NewEngines(observer, logger, gates...)
	return p, nil
}
