package models

// Clone returns a deep copy of p. Documents handed to the autosave
// controller are treated as immutable, so mutators clone, edit, and hand
// the copy back.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	if p.Records != nil {
		out.Records = make([]SurveyRecord, len(p.Records))
		for i := range p.Records {
			out.Records[i] = p.Records[i].clone()
		}
	}
	return &out
}

func (r SurveyRecord) clone() SurveyRecord {
	out := r
	if r.Altitude != nil {
		alt := *r.Altitude
		out.Altitude = &alt
	}
	if r.Photos != nil {
		out.Photos = make([]Photo, len(r.Photos))
		for i := range r.Photos {
			out.Photos[i] = r.Photos[i].clone()
		}
	}
	return out
}

func (ph Photo) clone() Photo {
	out := ph
	if ph.Preview != nil {
		out.Preview = append([]byte(nil), ph.Preview...)
	}
	if ph.CaptureLocation != nil {
		loc := *ph.CaptureLocation
		out.CaptureLocation = &loc
	}
	return out
}

// Record returns a pointer to the record with the given id, or nil.
func (p *Project) Record(id string) *SurveyRecord {
	for i := range p.Records {
		if p.Records[i].ID == id {
			return &p.Records[i]
		}
	}
	return nil
}

// Photo returns a pointer to the photo with the given id, or nil.
func (r *SurveyRecord) Photo(id string) *Photo {
	for i := range r.Photos {
		if r.Photos[i].ID == id {
			return &r.Photos[i]
		}
	}
	return nil
}

// BlobIDs returns the ids of every photo flagged as blob-backed, in
// document order.
func (p *Project) BlobIDs() []string {
	var ids []string
	for _, r := range p.Records {
		for _, ph := range r.Photos {
			if ph.HasBlob {
				ids = append(ids, ph.ID)
			}
		}
	}
	return ids
}

// PhotoCount returns the total number of photos across all records.
func (p *Project) PhotoCount() int {
	n := 0
	for _, r := range p.Records {
		n += len(r.Photos)
	}
	return n
}
