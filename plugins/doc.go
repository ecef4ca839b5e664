// Package plugins hosts species modules. Each subpackage implements
// core.Plugin, seeding a species catalog and contributing catalog rules.
// Plugins reach the catalog model only through internal/core; the guard test
// in this directory keeps them off pkg/domain and the infra adapters.
package plugins
