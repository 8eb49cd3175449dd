/*
Package types defines core data structures used throughout perfscope.

# Overview

The types package provides shared type definitions for:
  - Raw browser timing input (navigation, paint, LCP, resource entries)
  - Classified resources and cross-origin buckets
  - Waterfall stages and scalar page metrics
  - Report sections handed to the render layer

# Input Types

Snapshot:
  - Everything one collection pass reads from a page
  - Produced by a source (live tab, file, HAR, synthetic)
  - Navigation may be nil when the page exposes no navigation entry

RawResource:
  - One PerformanceResourceTiming record
  - TransferSize is a pointer: nil means the browser withheld it

# Derived Types

ResourceEntry:
  - A RawResource after classification
  - Domain and Type are always populated
  - Cached and Opaque flags are set by the classifier

CrossOriginBucket:
  - Opaque resource count for one domain
  - Optional per-type and per-initiator tallies

WaterfallStage:
  - One of the fourteen fixed page-load phases
  - Parallel marks a stage that overlaps the previous one (SSL)

# Field Tags

JSON tags use the browser's camelCase names so a snapshot captured by the
in-page collection script decodes without translation. YAML tags mirror them for the
yaml output format.
*/
package types
