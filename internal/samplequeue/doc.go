// Package samplequeue implements the bounded, single-producer/many-
// consumers send buffer of spec §4.3. Each subscriber gets its own
// cursor with a configured capacity; a cursor that falls behind drops
// its oldest buffered samples rather than ever blocking the producer.
package samplequeue
