// Package dag models the pipeline as a directed graph of steps. It builds
// Step nodes from the raw step records, wires their depends_on edges, and
// answers the one question the selection pass asks of the graph: given the
// steps whose inputs changed, which steps are needed?
package dag
