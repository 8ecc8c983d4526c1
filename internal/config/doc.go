// Package config loads, normalizes, and validates drumviz configuration data.
//
// It supplies repository defaults that mirror the figures used in the paper
// (16 kHz audio, 2.5 second clips, 1920x1080 at 30 fps), expands user paths
// (including tilde shortcuts), reads TOML files, and honours environment
// fallbacks such as DRUMVIZ_FFMPEG. The Config type centralizes every knob the
// render pipeline and the exporters need, including the ordered segment list.
//
// A Config is loaded once and then passed by value or pointer into component
// constructors; nothing in the repository reads configuration from globals.
package config
