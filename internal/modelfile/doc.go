// Package modelfile loads a model description written in HCL and builds
// the corresponding graph through the create surface. A description file
// declares packages, types, enumerations, constants, sensors, and
// operators as top-level blocks; operator blocks nest their interface
// variables and equations.
package modelfile
