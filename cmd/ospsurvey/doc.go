// Command ospsurvey manages a local OSP field-survey project: survey
// records with coordinates and notes, their photos, and export of the
// whole project as a zip archive with a KMZ map overlay.
//
// Every command opens the local store, applies its change and flushes the
// project document before exiting.
package main
