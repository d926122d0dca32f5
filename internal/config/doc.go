// Package config defines the pack-updater settings and helpers to load, validate
// and save them in YAML format.
//
// Every setting has a default, so a repository without a settings file behaves
// exactly like the built-in layout: pack "dynam", manifest "dynam/c.json" and the
// dynamicmcpack.repo.* descriptor files next to it.
package config
