// Package persons provides the core types for generating synthetic personal-record datasets.
//
// This package defines the data model shared by all generation and delivery components,
// the resolved GenerationConfig a run is driven by, the DataQualityProfile presets for
// defect injection, the error taxonomy and the dependency-free observability interfaces.
//
// Key types:
//   - Person: The root entity with its addresses, phones, emails, employment and financial profile
//   - Batch: An index-ascending group of persons moving as a unit through the pipeline
//   - GenerationConfig: The immutable, fully resolved configuration of one run
//   - DataQualityProfile: Named or explicit defect-injection rates
//
// Common usage pattern:
//
//	cfg, err := persons.NewGenerationConfig(
//		persons.WithRecordCount(10_000),
//		persons.WithSeed(42),
//		persons.WithQualityProfileName("standard"),
//		persons.WithWorkers(8),
//	)
//	if err != nil {
//		// handle error
//	}
//
//	eng, _ := engine.New(cfg)
//	summary, err := eng.Run(ctx, writer)
package persons
