package audiofile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// Info describes a chapter recording.
type Info struct {
	Path       string        `json:"path"`
	Size       int64         `json:"size"`
	SampleRate int           `json:"sample_rate,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Probe reads the recording header. MP3 files report duration from the
// decoded stream length; other formats only report size.
func Probe(path string) (Info, error) {
	info := Info{Path: path}
	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return info, err
	}
	info.Size = stat.Size()

	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return info, nil
	}
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return info, fmt.Errorf("decode mp3 header: %w", err)
	}
	info.SampleRate = decoder.SampleRate()
	// Length is in bytes of 16-bit stereo PCM: 4 bytes per sample frame.
	if length := decoder.Length(); length > 0 && info.SampleRate > 0 {
		frames := length / 4
		info.Duration = time.Duration(float64(frames) / float64(info.SampleRate) * float64(time.Second))
	}
	return info, nil
}
