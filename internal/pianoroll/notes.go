package pianoroll

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"drumviz/internal/services"
)

const defaultBPM = 120.0

// Note is one sounded pitch with absolute times in seconds.
type Note struct {
	Channel  uint8
	Key      uint8
	Velocity uint8
	Start    float64
	End      float64
}

// Duration is End - Start.
func (n Note) Duration() float64 {
	return n.End - n.Start
}

// Song holds the notes of a file and the time its last event occurs.
type Song struct {
	Notes []Note
	End   float64
}

// ReadFile parses a Standard MIDI File from disk.
func ReadFile(path string) (*Song, error) {
	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrLoad, "pianoroll", "read", path, err)
	}
	return FromSMF(s)
}

// Read parses a Standard MIDI File from r.
func Read(r io.Reader) (*Song, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, services.Wrap(services.ErrLoad, "pianoroll", "read", "", err)
	}
	return FromSMF(s)
}

type tempoChange struct {
	tick int64
	bpm  float64
}

// tempoMap converts absolute ticks to seconds across tempo changes.
type tempoMap struct {
	ppq     float64
	changes []tempoChange
}

func (m tempoMap) seconds(tick int64) float64 {
	var (
		elapsed  float64
		lastTick int64
		bpm      = defaultBPM
	)
	for _, c := range m.changes {
		if c.tick >= tick {
			break
		}
		elapsed += float64(c.tick-lastTick) * 60 / (bpm * m.ppq)
		lastTick, bpm = c.tick, c.bpm
	}
	return elapsed + float64(tick-lastTick)*60/(bpm*m.ppq)
}

type noteKey struct{ channel, key uint8 }

type openNote struct {
	tick     int64
	velocity uint8
}

// FromSMF extracts notes from every track. A note-on is closed by the next
// note-off (or zero-velocity note-on) for the same channel and key, and
// overlapping repeats close first-in first-out. Notes still sounding at the
// end of their track end there.
func FromSMF(s *smf.SMF) (*Song, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || ticks == 0 {
		return nil, services.Wrap(services.ErrLoad, "pianoroll", "timing",
			fmt.Sprintf("unsupported time format %v", s.TimeFormat), nil)
	}
	tm := tempoMap{ppq: float64(ticks)}
	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) && bpm > 0 {
				tm.changes = append(tm.changes, tempoChange{tick: abs, bpm: bpm})
			}
		}
	}
	sort.SliceStable(tm.changes, func(i, j int) bool { return tm.changes[i].tick < tm.changes[j].tick })

	song := &Song{}
	for _, track := range s.Tracks {
		open := map[noteKey][]openNote{}
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			msg := midi.Message(ev.Message)
			var channel, key, velocity uint8
			switch {
			case msg.GetNoteStart(&channel, &key, &velocity):
				k := noteKey{channel, key}
				open[k] = append(open[k], openNote{tick: abs, velocity: velocity})
			case msg.GetNoteEnd(&channel, &key):
				k := noteKey{channel, key}
				pending := open[k]
				if len(pending) == 0 {
					continue
				}
				song.Notes = append(song.Notes, makeNote(tm, k, pending[0], abs))
				open[k] = pending[1:]
			}
		}
		for k, pending := range open {
			for _, on := range pending {
				song.Notes = append(song.Notes, makeNote(tm, k, on, abs))
			}
		}
		song.End = max(song.End, tm.seconds(abs))
	}
	sort.SliceStable(song.Notes, func(i, j int) bool {
		if song.Notes[i].Start != song.Notes[j].Start {
			return song.Notes[i].Start < song.Notes[j].Start
		}
		return song.Notes[i].Key < song.Notes[j].Key
	})
	for _, n := range song.Notes {
		song.End = max(song.End, n.End)
	}
	return song, nil
}

func makeNote(tm tempoMap, k noteKey, on openNote, endTick int64) Note {
	return Note{
		Channel:  k.channel,
		Key:      k.key,
		Velocity: on.velocity,
		Start:    tm.seconds(on.tick),
		End:      tm.seconds(endTick),
	}
}
