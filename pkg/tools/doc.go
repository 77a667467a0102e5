// Package tools spawns and tracks external processes.
//
// A Controller runs commands in two modes. Wait runs a command to exit and
// returns its output. Execute spawns a command, keeps it in a table keyed by
// its ID ("tool:version:unid") and hands back a reference whose stdio a
// transport can later Take and stream.
//
// Tools configured in tools.yaml form an allow-list: Resolve only builds
// requests for registered names, passing arguments as FORMWORK_ARG_<KEY>
// environment variables rather than command-line flags.
package tools
