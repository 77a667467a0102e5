/*
Package ports defines the driven ports (interfaces) for the formwork engine.

These interfaces decouple the engine and its domains from external
implementations, allowing the same flows to run against different caches,
document stores and definition sources.

# Key Interfaces

  - ResourceCache: Caches resource listings per scope (e.g. Memory or Redis).
  - DocumentSource: Reads raw documents such as pipeline template manifests (e.g. a blob bucket or Memory).
  - DefinitionSource: Lists static flow definitions (e.g. from Loam).
*/
package ports
