package genbank

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// abca4Record mirrors the shape of NG_009073, the human ABCA4 RefSeqGene
// entry, trimmed to a handful of lines per section.
const abca4Record = `LOCUS       NG_009073             128315 bp    DNA     linear   PRI 03-OCT-2024
DEFINITION  Homo sapiens ATP binding cassette subfamily A member 4 (ABCA4),
            RefSeqGene (LRG_793) on chromosome 1.
ACCESSION   NG_009073 REGION: 5000..133314
VERSION     NG_009073.2
KEYWORDS    RefSeq; RefSeqGene.
SOURCE      Homo sapiens (human)
  ORGANISM  Homo sapiens
            Eukaryota; Metazoa; Chordata; Craniata; Vertebrata; Euteleostomi;
            Mammalia; Eutheria; Euarchontoglires; Primates; Haplorrhini;
            Catarrhini; Hominidae; Homo.
REFERENCE   1  (bases 1 to 128315)
  AUTHORS   Cremers,F.P.M., Lee,W. and Allikmets,R.
  TITLE     Clinical spectrum, genetic complexity and therapeutic approaches
  JOURNAL   Prog Retin Eye Res 79, 100861 (2020)
   PUBMED   32278709
REFERENCE   2  (bases 1 to 128315)
  AUTHORS   Allikmets,R. and Shroyer,N.F.
  TITLE     A photoreceptor cell-specific ATP-binding transporter gene
  JOURNAL   Nat Genet 15 (3), 236-246 (1997)
   PUBMED   9054934
COMMENT     REVIEWED REFSEQ: This record has been curated by NCBI staff.
            The reference sequence was derived from AC087446.3.
PRIMARY     REFSEQ_SPAN         PRIMARY_IDENTIFIER PRIMARY_SPAN        COMP
            1-128315            AC087446.3         5000-133314
FEATURES             Location/Qualifiers
     source          1..128315
                     /organism="Homo sapiens"
                     /mol_type="genomic DNA"
                     /db_xref="taxon:9606"
     gene            1..128315
                     /gene="ABCA4"
                     /note="ATP binding cassette subfamily A member 4; a
                     retina-specific ABC transporter"
                     /pseudo
ORIGIN
        1 ggacacagcg ttagacccca gcctggcaca
       31 tcagcaaaca gtgcatgaac ta
//
`

const abca4Taxonomy = "Eukaryota; Metazoa; Chordata; Craniata; Vertebrata; Euteleostomi; " +
	"Mammalia; Eutheria; Euarchontoglires; Primates; Haplorrhini; Catarrhini; Hominidae; Homo."

func TestParseGenbankABCA4(t *testing.T) {
	records, err := ParseGenbank(strings.NewReader(abca4Record))
	if err != nil {
		t.Fatalf("ParseGenbank failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]

	if rec.Locus != "NG_009073" {
		t.Errorf("locus = %q, want NG_009073", rec.Locus)
	}
	if rec.Size != 128315 {
		t.Errorf("size = %d, want 128315", rec.Size)
	}
	if rec.MoleculeType != "DNA" || rec.GenbankDivision != "PRI" || rec.ModificationDate != "03-OCT-2024" {
		t.Errorf("unexpected locus fields: %q %q %q", rec.MoleculeType, rec.GenbankDivision, rec.ModificationDate)
	}
	wantDef := "Homo sapiens ATP binding cassette subfamily A member 4 (ABCA4), RefSeqGene (LRG_793) on chromosome 1."
	if rec.Definition != wantDef {
		t.Errorf("definition = %q, want %q", rec.Definition, wantDef)
	}
	if rec.Accession != "NG_009073 REGION: 5000..133314" {
		t.Errorf("accession = %q", rec.Accession)
	}
	if rec.Version != "NG_009073.2" {
		t.Errorf("version = %q, want NG_009073.2", rec.Version)
	}
	if diff := cmp.Diff([]string{"RefSeq", "RefSeqGene"}, rec.Keywords); diff != "" {
		t.Errorf("keywords mismatch (-want +got):\n%s", diff)
	}
	if rec.Source != "Homo sapiens (human)" {
		t.Errorf("source = %q", rec.Source)
	}
	if rec.Taxonomy != abca4Taxonomy {
		t.Errorf("taxonomy = %q, want %q", rec.Taxonomy, abca4Taxonomy)
	}
	if want := "Homo sapiens [" + abca4Taxonomy + "]"; rec.Organism != want {
		t.Errorf("organism = %q, want %q", rec.Organism, want)
	}
	if !strings.HasPrefix(rec.Primary, "REFSEQ_SPAN") || !strings.Contains(rec.Primary, "AC087446.3") {
		t.Errorf("primary = %q", rec.Primary)
	}
	wantComment := "REVIEWED REFSEQ: This record has been curated by NCBI staff. The reference sequence was derived from AC087446.3."
	if rec.Comment != wantComment {
		t.Errorf("comment = %q", rec.Comment)
	}

	wantRefs := []Reference{
		{
			Citation: "1  (bases 1 to 128315)",
			Authors:  "Cremers,F.P.M., Lee,W. and Allikmets,R.",
			Title:    "Clinical spectrum, genetic complexity and therapeutic approaches",
			Journal:  "Prog Retin Eye Res 79, 100861 (2020)",
			PubMed:   "32278709",
		},
		{
			Citation: "2  (bases 1 to 128315)",
			Authors:  "Allikmets,R. and Shroyer,N.F.",
			Title:    "A photoreceptor cell-specific ATP-binding transporter gene",
			Journal:  "Nat Genet 15 (3), 236-246 (1997)",
			PubMed:   "9054934",
		},
	}
	if diff := cmp.Diff(wantRefs, rec.References); diff != "" {
		t.Errorf("references mismatch (-want +got):\n%s", diff)
	}

	if len(rec.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(rec.Features))
	}
	wantGene := Feature{FeatureType: "gene", Location: "1..128315"}
	wantGene.Qualifiers.Set("gene", "ABCA4")
	wantGene.Qualifiers.Set("note", "ATP binding cassette subfamily A member 4; a")
	wantGene.Qualifiers.AppendLast("retina-specific ABC transporter")
	wantGene.Qualifiers.Set("pseudo", "")
	if diff := cmp.Diff(wantGene, rec.Features[1], cmp.AllowUnexported(Qualifiers{})); diff != "" {
		t.Errorf("gene feature mismatch (-want +got):\n%s", diff)
	}
	if org, ok := rec.Features[0].Qualifiers.Get("organism"); !ok || org[0] != "Homo sapiens" {
		t.Errorf("source feature organism qualifier = %v", org)
	}

	wantSeq := "ggacacagcgttagaccccagcctggcaca" + "tcagcaaacagtgcatgaacta"
	if rec.Sequence != wantSeq {
		t.Errorf("sequence = %q, want %q", rec.Sequence, wantSeq)
	}
}

func TestParseGenbankScenarioLocusLine(t *testing.T) {
	in := "LOCUS       NG_009073  128315 bp    DNA     linear   PRI 03-OCT-2024\n//\n"
	records, err := ParseGenbank(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseGenbank failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Locus != "NG_009073" || rec.Size != 128315 || rec.MoleculeType != "DNA" ||
		rec.GenbankDivision != "PRI" || rec.ModificationDate != "03-OCT-2024" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestParseGenbankMultipleRecords(t *testing.T) {
	in := abca4Record + `LOCUS       NM_000350  7325 bp    mRNA    linear   PRI 10-JAN-2023
DEFINITION  Homo sapiens ABCA4 mRNA.
VERSION     NM_000350.3
//
`
	records, err := ParseGenbank(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseGenbank failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Locus != "NG_009073" || records[1].Locus != "NM_000350" {
		t.Fatalf("unexpected loci: %q, %q", records[0].Locus, records[1].Locus)
	}
	if records[1].Version != "NM_000350.3" {
		t.Errorf("second record version = %q", records[1].Version)
	}
	if len(records[1].Features) != 0 {
		t.Errorf("second record should have no features, got %d", len(records[1].Features))
	}
	if records[1].Sequence != "" {
		t.Errorf("second record should have no sequence, got %q", records[1].Sequence)
	}
}

// A record cut off before its terminator must still yield the in-progress
// feature and reference.
func TestParseGenbankTrailingFlush(t *testing.T) {
	in := `LOCUS       AB000001  500 bp    DNA     linear   PRI 01-JAN-2024
REFERENCE   1  (bases 1 to 500)
  AUTHORS   Sato,K.
FEATURES             Location/Qualifiers
     gene            1..500
                     /gene="XYZ1"
`
	records, err := ParseGenbank(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseGenbank failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if len(rec.References) != 1 || rec.References[0].Authors != "Sato,K." {
		t.Fatalf("reference not flushed: %+v", rec.References)
	}
	if len(rec.Features) != 1 || rec.Features[0].FeatureType != "gene" {
		t.Fatalf("feature not flushed: %+v", rec.Features)
	}
	if g, ok := rec.Features[0].Qualifiers.Get("gene"); !ok || g[0] != "XYZ1" {
		t.Fatalf("gene qualifier = %v", g)
	}
}

// Each ParseGenbank call builds its state from scratch: a first input that
// ends inside a feature table must not make a later call treat indented lines
// as features.
func TestParseGenbankRunsAreIndependent(t *testing.T) {
	first := "LOCUS       AAA100  100 bp    DNA     linear   PRI 01-JAN-2024\n" +
		"FEATURES             Location/Qualifiers\n" +
		"     gene            1..100\n"
	second := "LOCUS       BBB200  200 bp    DNA     linear   PRI 02-JAN-2024\n" +
		"     gene            1..200\n"

	recs1, err := ParseGenbank(strings.NewReader(first))
	if err != nil {
		t.Fatalf("first parse failed: %v", err)
	}
	if len(recs1) != 1 || len(recs1[0].Features) != 1 {
		t.Fatalf("first parse: expected 1 record with 1 feature, got %+v", recs1)
	}

	recs2, err := ParseGenbank(strings.NewReader(second))
	if err != nil {
		t.Fatalf("second parse failed: %v", err)
	}
	if len(recs2) != 1 {
		t.Fatalf("second parse: expected 1 record, got %d", len(recs2))
	}
	if len(recs2[0].Features) != 0 {
		t.Fatalf("feature state leaked across parse runs: %+v", recs2[0].Features)
	}
}

func TestParseGenbankBadSizeIsFatal(t *testing.T) {
	in := `LOCUS       GOOD1  100 bp    DNA     linear   PRI 01-JAN-2024
//
LOCUS       BAD01  12x45 bp    DNA     linear   PRI 01-JAN-2024
//
`
	records, err := ParseGenbank(strings.NewReader(in))
	if err == nil {
		t.Fatalf("expected error for non-numeric size, got records: %+v", records)
	}
	if records != nil {
		t.Fatalf("expected no records on fatal parse, got %d", len(records))
	}
	if !strings.Contains(err.Error(), "12x45") {
		t.Errorf("error should name the bad token, got: %v", err)
	}
}

func TestParseGenbankShortLocusKeepsDefaults(t *testing.T) {
	in := "LOCUS       SHORT1  100 bp\n//\n"
	records, err := ParseGenbank(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseGenbank failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Locus != "" || rec.Size != 0 || rec.MoleculeType != "" {
		t.Fatalf("short LOCUS line should leave defaults, got %+v", rec)
	}
}

func TestParseGenbankDropsUnclaimedLines(t *testing.T) {
	in := `LOCUS       DROP01  100 bp    DNA     linear   PRI 01-JAN-2024
VERSION     DROP01.1
this line matches nothing and is dropped
DEFINITION  A record.
//
`
	records, err := ParseGenbank(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ParseGenbank failed: %v", err)
	}
	rec := records[0]
	if rec.Version != "DROP01.1" || rec.Definition != "A record." {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestParseGenbankEmptyInput(t *testing.T) {
	for _, in := range []string{"", "\n\n", "//\n", "\n//\n//\n"} {
		records, err := ParseGenbank(strings.NewReader(in))
		if err != nil {
			t.Fatalf("ParseGenbank(%q) failed: %v", in, err)
		}
		if len(records) != 0 {
			t.Fatalf("ParseGenbank(%q): expected 0 records, got %d", in, len(records))
		}
	}
}

func TestSplitRecords(t *testing.T) {
	in := "LOCUS A\n//\n\n//\nLOCUS B\nORIGIN\n"
	chunks := splitRecords(in)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != "LOCUS A\n" {
		t.Errorf("first chunk = %q", chunks[0])
	}
	if chunks[1] != "LOCUS B\nORIGIN\n" {
		t.Errorf("second chunk = %q", chunks[1])
	}
}

func TestSplitRecordsTerminatorMustBeAlone(t *testing.T) {
	// "// comment" is not a terminator line
	in := "LOCUS A\n// trailing text\nLOCUS B\n"
	chunks := splitRecords(in)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %q", len(chunks), chunks)
	}
}
