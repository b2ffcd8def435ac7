package sink

import "tagpatch/host/reader"

type multi []reader.Sink

// Multi fans a sample out to every sink, stopping at the first error
func Multi(sinks ...reader.Sink) reader.Sink {
	return multi(sinks)
}

func (m multi) Write(s reader.Sample) error {
	for _, sk := range m {
		if err := sk.Write(s); err != nil {
			return err
		}
	}
	return nil
}
