// Package analysis measures the quality of a finished layout.
//
//   - [Stress]: how far link lengths deviate from their rest lengths
//   - [MeasureSpread]: bounding box, centroid and radius of the layout
//   - [LayoutToASCII]: a quick terminal scatter plot
//
// Lower stress means the layout honors the similarity weights more closely:
//
//	stress := analysis.Stress(s.Bodies(), s.Springs())
package analysis
