package normalize

// DefaultRules returns the built-in correction catalog: functional
// groups rewritten to a preferred representation (nitro, sulfone,
// sulfoxide, azide, diazo, phosphate, aromatic N-oxides) followed by
// charge-separation repairs that recombine or relocate formal charges.
//
// Order is significant. Earlier rules are preferred, and after any rule
// fires the engine re-scans from the top, so a later rule's rewrite can
// feed an earlier one. Names repeat across variants of the same
// correction; the engine never keys on them.
//
// Each call returns fresh Rule values. Compiled transforms are memoized
// per Rule against the first compiler they see, so sharing one returned
// slice across normalizers with different systems would pin the first
// system's transforms.
func DefaultRules() []*Rule {
	return []*Rule{
		NewRule("Nitro to N+(O-)=O",
			"[*:1][N,P,As,Sb:2](=[O,S,Se,Te:3])=[O,S,Se,Te:4]>>[*:1][*+1:2]([*-1:3])=[*:4]"),
		NewRule("Sulfone to S(=O)(=O)",
			"[S+2:1]([O-:2])([O-:3])>>[S+0:1](=[O-0:2])(=[O-0:3])"),
		NewRule("Pyridine oxide to n+O-",
			"[n:1]=[O:2]>>[n+:1][O-:2]"),
		NewRule("Azide to N=N+=N-",
			"[N;X2:1]=[N:2]#[N;D1:3]>>[N:1]=[N+:2]=[N-:3]"),
		NewRule("Diazo/azo to =N+=N-",
			"[*:1]=[N:2]#[N:3]>>[*:1]=[N+:2]=[N-:3]"),
		NewRule("Sulfoxide to -S+(O-)-",
			"[!O:1][S+0;X3:2](=[O:3])[!O:4]>>[*:1][S+1:2]([O-:3])[*:4]"),
		NewRule("Phosphate to P(O-)=O",
			"[O,S,Se,Te;-1:1][P+;D4:2][O,S,Se,Te;-1:3]>>[*+0:1]=[P+0:2][*-1:3]"),
		NewRule("Amidinium to C(=NH2+)NH2",
			"[C,S;X3+1:1]([NX3:2])[NX3!H0:3]>>[*+0:1]([N:2])=[N+:3]"),
		NewRule("Normalize hydrazine-diazonium",
			"[CX4:1][NX3H:2]-[NX3H:3][CX4:4][NX2+:5]#[NX1:6]>>[C:1][NH0:2]=[NH+:3][C:4][N+0:5]=[NH:6]"),
		NewRule("Recombine 1,3-separated charges",
			"[N,P,As,Sb,O,S,Se,Te;-1:1]-[A:2]=[N,P,As,Sb,O,S,Se,Te;+1:3]>>[*-0:1]=[*:2]-[*+0:3]"),
		NewRule("Recombine 1,3-separated charges",
			"[n,o,p,s;-1:1]:[a:2]=[N,O,P,S;+1:3]>>[*-0:1]:[*:2]-[*+0:3]"),
		NewRule("Recombine 1,3-separated charges",
			"[N,O,P,S;-1:1]-[a:2]:[n,o,p,s;+1:3]>>[*-0:1]=[*:2]:[*+0:3]"),
		NewRule("Recombine 1,5-separated charges",
			"[N,P,As,Sb,O,S,Se,Te;-1:1]-[A+0:2]=[A:3]-[A:4]=[N,P,As,Sb,O,S,Se,Te;+1:5]>>[*-0:1]=[*:2]-[*:3]=[*:4]-[*+0:5]"),
		NewRule("Recombine 1,5-separated charges",
			"[n,o,p,s;-1:1]:[a:2]:[a:3]:[c:4]=[N,O,P,S;+1:5]>>[*-0:1]:[*:2]:[*:3]:[c:4]-[*+0:5]"),
		NewRule("Recombine 1,5-separated charges",
			"[N,O,P,S;-1:1]-[c:2]:[a:3]:[a:4]:[n,o,p,s;+1:5]>>[*-0:1]=[c:2]:[*:3]:[*:4]:[*+0:5]"),
		NewRule("Charge normalization",
			"[F,Cl,Br,I;-1:1]=[O:2]>>[*-0:1][O-:2]"),
		NewRule("Charge recombination",
			"[N,P,As,Sb;-1:1]=[C+;X2:2]>>[*+0:1]#[C+0:2]"),
	}
}
