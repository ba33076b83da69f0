package server

import (
	"bytes"
	"context"
	"os"
	"strings"
	"time"

	"github.com/perchdev/perch/command"
	"github.com/perchdev/perch/config"
	"github.com/perchdev/perch/internal/transcript"
	"github.com/perchdev/perch/pkg/models"
)

const containerReadTimeout = 10 * time.Second

// transcriptMessages loads a session's transcript. Container transcripts
// outside the /workspace mount (e.g. /home/node/.claude/...) never get a host
// copy, so a path missing on the host is read back through docker exec.
func (s *Server) transcriptMessages(ctx context.Context, sess *models.Session) []transcript.Message {
	if sess.TranscriptPath == "" {
		return nil
	}
	if _, err := os.Stat(sess.TranscriptPath); err == nil {
		return transcript.ParseFile(sess.TranscriptPath)
	}

	container, ok := strings.CutPrefix(sess.Source, "container:")
	if !ok || container == "" {
		return nil
	}

	dirs, _ := config.LoadBridgeDirs()
	raw, err := s.readContainerFile(ctx, container, containerTranscriptPath(sess.TranscriptPath, dirs))
	if err != nil || len(raw) == 0 {
		return nil
	}
	return transcript.Parse(bytes.NewReader(raw))
}

// containerTranscriptPath maps a host-rewritten transcript path back to its
// in-container location. Paths under no bridge dir pass through unchanged.
func containerTranscriptPath(hostPath string, bridgeDirs []string) string {
	for _, dir := range bridgeDirs {
		if strings.HasPrefix(hostPath, dir+"/") {
			return "/workspace" + hostPath[len(dir):]
		}
	}
	return hostPath
}

func dockerReadFile(ctx context.Context, container, path string) ([]byte, error) {
	cmd, err := command.NewBuilder().Build(ctx, "docker", "exec", container, "cat", path)
	if err != nil {
		return nil, err
	}
	return cmd.WithTimeout(containerReadTimeout).Exec().Output()
}
