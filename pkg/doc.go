// Package pkg provides the libraries behind the nccs command.
//
// # Overview
//
// nccs collects the raw inputs of the tax-exempt organization data build:
// IRS core filing extracts per form and release year, the epostcard
// (990-N) notices and the Business Master File regions, plus warehouse
// tables. The pkg directory is organized by stage:
//
//  1. [urls] - the URL map read from the settings directory
//  2. [acquire] - downloads with local reuse, backed by [archive] and [normalize]
//  3. [loader] - EIN-indexed tables for core files, epostcard and BMF
//  4. [warehouse] - tables served from memory, disk or a live query
//  5. [table] and [tableio] - the in-memory table and its file formats
//
// # Data Flow
//
//	settings/urls/*.txt
//	         ↓
//	    [urls] (URL map)
//	         ↓
//	    [acquire] → [archive] → [normalize] (raw file → .parquet)
//	         ↓
//	    [loader] (EIN index, SOURCE, uniqueness checks)
//
// The warehouse path is independent:
//
//	memory → <name>.parquet → <name>.csv → SELECT
//
// # Quick Start
//
//	m, err := urls.Load("settings/urls", []string{"EZ"})
//	acq, err := acquire.New(acquire.Options{Dir: "downloads/IRS"}, nil, logger)
//	l := loader.New(m, acq, loader.Options{}, logger)
//	tables, err := l.LoadForms(ctx, []string{"EZ"}, 2020)
//
// # Supporting Packages
//
//   - [config]: the nccs.toml run file
//   - [errors]: error codes shared by every stage
//   - [observability]: download and cache hooks
//   - [buildinfo]: version information
//
// [urls]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/urls
// [acquire]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/acquire
// [archive]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/archive
// [normalize]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/normalize
// [loader]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/loader
// [warehouse]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/warehouse
// [table]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/table
// [tableio]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/tableio
// [config]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/nccs/pkg/buildinfo
package pkg
