package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/polyglot-brief/pkg/model"
	"github.com/stretchr/testify/suite"
)

type ReportSuite struct {
	suite.Suite
	at time.Time
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportSuite))
}

func (s *ReportSuite) SetupTest() {
	s.at = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
}

func (s *ReportSuite) TestFileName() {
	s.Equal("STT_2024-03-09.txt", FileName(s.at))
}

func (s *ReportSuite) TestTranscriptArtifact() {
	body := Transcript("call.mp3", s.at, "Speaker 1: hello\nSpeaker 2: hi")

	s.Equal("[Transcription Report]\n\n"+
		"File: call.mp3\n"+
		"Date: 2024-03-09 14:05:07\n\n"+
		"---\n\n"+
		"Speaker 1: hello\nSpeaker 2: hi", body)
}

func (s *ReportSuite) TestTranscriptHTML() {
	s.Equal("Speaker 1: a &lt;b&gt; &amp; c<br>Speaker 2: d", TranscriptHTML("Speaker 1: a <b> & c\r\nSpeaker 2: d"))
}

func (s *ReportSuite) TestTextForStructuredSummary() {
	result := model.NewStructuredResult(model.Summary{MyArgument: "X", OtherArgument: "Y", Context: "Z"})

	s.Equal("My argument:\nX\n\nOther argument:\nY\n\nContext:\nZ\n", Text(result))
}

func (s *ReportSuite) TestTextForUnstructuredSummary() {
	text := Text(model.NewUnstructuredResult("prose"))

	s.Contains(text, "My argument:\n"+model.SeeFullReport)
	s.Contains(text, "Context:\nprose")
}

func (s *ReportSuite) TestTextForTranscriptAndFailure() {
	s.Equal("Speaker 1: hi", Text(model.NewTranscriptResult("Speaker 1: hi")))

	failed := Text(model.NewFailedResult("quota exceeded"))
	s.Contains(failed, "check the API key's permissions")
	s.Contains(failed, "last error: quota exceeded")

	s.NotContains(FailureMessage(model.NewFailedResult("")), "last error")
}

func (s *ReportSuite) TestWriteTranscriptDoesNotOverwrite() {
	dir := filepath.Join(s.T().TempDir(), "out")

	first, err := WriteTranscript(dir, "a.wav", s.at, "one")
	s.Require().NoError(err)
	second, err := WriteTranscript(dir, "b.wav", s.at, "two")
	s.Require().NoError(err)

	s.Equal(filepath.Join(dir, "STT_2024-03-09.txt"), first)
	s.Equal(filepath.Join(dir, "STT_2024-03-09_1.txt"), second)

	data, err := os.ReadFile(second)
	s.Require().NoError(err)
	s.Contains(string(data), "File: b.wav")
}

func (s *ReportSuite) TestWriteSummary() {
	dir := s.T().TempDir()

	path, err := WriteSummary(dir, "minutes.txt", model.NewStructuredResult(model.Summary{MyArgument: "X"}))

	s.Require().NoError(err)
	s.Equal(filepath.Join(dir, "minutes_summary.txt"), path)
	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Contains(string(data), "My argument:\nX")
}
