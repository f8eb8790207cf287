// Package archive compiles the project document and its full-resolution
// photos into a single zip container:
//
//	<site>_<timestamp>/
//	    <site>_REPORT.kmz          doc.kml + images/<record>_IMG_<n>.jpg
//	    PROJECT_SUMMARY.txt
//	    POLES/<record>/metadata.txt
//	    POLES/<record>/PHOTO_<n>.jpg
//
// Entry order follows document order and every entry carries a fixed
// modification time, so two compilations of the same document differ only
// in the root folder name and the generation date in the summary.
package archive
