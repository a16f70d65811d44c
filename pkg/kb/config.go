package kb

import (
	"bufio"
	"os"
)

// writeConfig writes kb.meta: a version byte followed by the compile-time
// configuration. Every other sub-store file is opened only after this one
// passes its version check.
func writeConfig(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if err := writeU8(w, uint8(CurrentVersion)); err != nil {
		return err
	}
	if err := writeF32(w, cfg.MaxDistance); err != nil {
		return err
	}
	if err := writeString16(w, cfg.DistanceKey); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(cfg.StopWords))); err != nil {
		return err
	}
	for _, s := range cfg.StopWords {
		if err := writeString16(w, s); err != nil {
			return err
		}
	}
	return w.Flush()
}

func readConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	versionByte, err := readU8(r)
	if err != nil {
		return Config{}, err
	}
	got := Version(versionByte)
	if got != CurrentVersion {
		return Config{}, &ErrVersionMismatch{File: path, Got: got, Want: CurrentVersion}
	}

	maxDistance, err := readF32(r)
	if err != nil {
		return Config{}, err
	}
	distanceKey, err := readString16(r)
	if err != nil {
		return Config{}, err
	}
	n, err := readU32(r)
	if err != nil {
		return Config{}, err
	}
	stopWords := make([]string, n)
	for i := range stopWords {
		s, err := readString16(r)
		if err != nil {
			return Config{}, err
		}
		stopWords[i] = s
	}

	return Config{MaxDistance: maxDistance, DistanceKey: distanceKey, StopWords: stopWords}, nil
}
